package gateway_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/pkg/conversation"
	"github.com/KAVYAPALLERLA/chatbot/pkg/gateway"
	"github.com/KAVYAPALLERLA/chatbot/pkg/llm"
)

// fakeProvider records every request and answers with the queued replies.
type fakeProvider struct {
	replies []string
	err     error
	calls   [][]llm.Message
	opts    []llm.Options
}

func (f *fakeProvider) Complete(_ context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	f.calls = append(f.calls, messages)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func countRole(msgs []llm.Message, role llm.Role) int {
	n := 0
	for _, m := range msgs {
		if m.Role == role {
			n++
		}
	}
	return n
}

var _ = Describe("Gateway", func() {
	var (
		ctx      context.Context
		provider *fakeProvider
		gw       *gateway.Gateway
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &fakeProvider{}
		gw = gateway.New(provider, zap.NewNop())
	})

	Describe("Complete", func() {
		It("records the turn of a successful first call", func() {
			provider.replies = []string{"Hi there"}

			conv, reply, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("Hi there"))
			Expect(conv.All()).To(Equal([]llm.Message{
				llm.UserMessage("Hello"),
				llm.AssistantMessage("Hi there"),
			}))
		})

		It("prefixes the first request with exactly one system instruction", func() {
			provider.replies = []string{"Hi there"}

			_, _, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")
			Expect(err).NotTo(HaveOccurred())

			Expect(provider.calls).To(HaveLen(1))
			sent := provider.calls[0]
			Expect(sent).To(Equal([]llm.Message{
				llm.SystemMessage(gateway.DefaultSystemInstruction),
				llm.UserMessage("Hello"),
			}))
		})

		It("does not repeat the system instruction on later calls", func() {
			provider.replies = []string{"Hi there", "Fine, thanks."}

			conv, _, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")
			Expect(err).NotTo(HaveOccurred())
			_, _, err = gw.Complete(ctx, conv, "How are you?")
			Expect(err).NotTo(HaveOccurred())

			Expect(provider.calls).To(HaveLen(2))
			Expect(countRole(provider.calls[1], llm.RoleSystem)).To(Equal(0))
			Expect(provider.calls[1]).To(Equal([]llm.Message{
				llm.UserMessage("Hello"),
				llm.AssistantMessage("Hi there"),
				llm.UserMessage("How are you?"),
			}))
		})

		It("sends the fixed generation options", func() {
			provider.replies = []string{"ok"}

			_, _, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.opts[0]).To(Equal(llm.Options{
				Model:       "llama3-70b-8192",
				Temperature: 0.6,
				MaxTokens:   1000,
			}))
		})

		It("grows the conversation by two messages per successful turn", func() {
			provider.replies = []string{"a", "b", "c"}

			conv := conversation.Conversation{}
			for _, text := range []string{"one", "two", "three"} {
				prev := conv.Len()
				var err error
				conv, _, err = gw.Complete(ctx, conv, text)
				Expect(err).NotTo(HaveOccurred())
				Expect(conv.Len()).To(Equal(prev + 2))
			}
		})

		Context("when the provider fails", func() {
			BeforeEach(func() {
				provider.err = errors.New("dial tcp: connection refused")
			})

			It("leaves an empty conversation empty", func() {
				conv, reply, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")

				Expect(err).To(HaveOccurred())
				Expect(reply).To(BeEmpty())
				Expect(conv.IsEmpty()).To(BeTrue())
			})

			It("leaves an existing conversation unchanged", func() {
				before := conversation.New(llm.UserMessage("Hello"), llm.AssistantMessage("Hi there"))

				after, _, err := gw.Complete(ctx, before, "How are you?")
				Expect(err).To(HaveOccurred())
				Expect(after.All()).To(Equal(before.All()))
			})

			It("reports an ErrProviderCallFailed wrapping the reason", func() {
				_, _, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")

				var failed gateway.ErrProviderCallFailed
				Expect(errors.As(err, &failed)).To(BeTrue())
				Expect(failed.Reason).To(MatchError("dial tcp: connection refused"))
				Expect(err.Error()).To(ContainSubstring("connection refused"))
			})

			It("makes a single attempt", func() {
				_, _, _ = gw.Complete(ctx, conversation.Conversation{}, "Hello")

				Expect(provider.calls).To(HaveLen(1))
			})
		})

		It("rejects empty input without calling the provider", func() {
			conv, _, err := gw.Complete(ctx, conversation.Conversation{}, "   \n")

			Expect(err).To(MatchError(gateway.ErrEmptyMessage))
			Expect(conv.IsEmpty()).To(BeTrue())
			Expect(provider.calls).To(BeEmpty())
		})
	})

	Describe("WithPersistedSystemInstruction", func() {
		BeforeEach(func() {
			gw = gateway.New(provider, zap.NewNop(), gateway.WithPersistedSystemInstruction())
		})

		It("stores the instruction once, before the first user turn", func() {
			provider.replies = []string{"Hi there", "Fine."}

			conv, _, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")
			Expect(err).NotTo(HaveOccurred())
			conv, _, err = gw.Complete(ctx, conv, "How are you?")
			Expect(err).NotTo(HaveOccurred())

			msgs := conv.All()
			Expect(msgs).To(HaveLen(5))
			Expect(msgs[0]).To(Equal(llm.SystemMessage(gateway.DefaultSystemInstruction)))
			Expect(countRole(msgs, llm.RoleSystem)).To(Equal(1))
			Expect(countRole(provider.calls[1], llm.RoleSystem)).To(Equal(1))
		})

		It("stores nothing when the first call fails", func() {
			provider.err = errors.New("quota exceeded")

			conv, _, err := gw.Complete(ctx, conversation.Conversation{}, "Hello")
			Expect(err).To(HaveOccurred())
			Expect(conv.IsEmpty()).To(BeTrue())
		})
	})
})
