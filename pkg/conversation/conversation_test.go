package conversation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/KAVYAPALLERLA/chatbot/pkg/conversation"
	"github.com/KAVYAPALLERLA/chatbot/pkg/llm"
)

var _ = Describe("Conversation", func() {
	Describe("zero value", func() {
		It("is empty", func() {
			var c conversation.Conversation

			Expect(c.IsEmpty()).To(BeTrue())
			Expect(c.Len()).To(Equal(0))
			Expect(c.All()).To(BeEmpty())
		})

		It("has no last message", func() {
			_, ok := conversation.Conversation{}.Last()

			Expect(ok).To(BeFalse())
		})
	})

	Describe("Append", func() {
		It("adds messages to the end in insertion order", func() {
			c := conversation.New(llm.UserMessage("Hello"))
			c = c.Append(llm.AssistantMessage("Hi there"), llm.UserMessage("How are you?"))

			Expect(c.All()).To(Equal([]llm.Message{
				llm.UserMessage("Hello"),
				llm.AssistantMessage("Hi there"),
				llm.UserMessage("How are you?"),
			}))
		})

		It("allows duplicate content", func() {
			c := conversation.New(llm.UserMessage("again"), llm.UserMessage("again"))

			Expect(c.Len()).To(Equal(2))
		})

		It("does not modify the receiver", func() {
			before := conversation.New(llm.UserMessage("Hello"))
			after := before.Append(llm.AssistantMessage("Hi there"))

			Expect(before.Len()).To(Equal(1))
			Expect(after.Len()).To(Equal(2))
		})

		It("never lets siblings share storage", func() {
			parent := conversation.New(llm.UserMessage("Hello"))
			left := parent.Append(llm.AssistantMessage("left"))
			right := parent.Append(llm.AssistantMessage("right"))

			last, _ := left.Last()
			Expect(last.Content).To(Equal("left"))
			last, _ = right.Last()
			Expect(last.Content).To(Equal("right"))
		})
	})

	Describe("AppendTurn", func() {
		It("grows the conversation by exactly two messages per turn", func() {
			var c conversation.Conversation
			for i := 0; i < 5; i++ {
				prev := c.Len()
				c = c.AppendTurn(llm.Turn{
					User:      llm.UserMessage("question"),
					Assistant: llm.AssistantMessage("answer"),
				})
				Expect(c.Len()).To(Equal(prev + 2))
			}
		})

		It("records the user message before the assistant message", func() {
			c := conversation.Conversation{}.AppendTurn(llm.Turn{
				User:      llm.UserMessage("Hello"),
				Assistant: llm.AssistantMessage("Hi there"),
			})

			Expect(c.All()).To(Equal([]llm.Message{
				{Role: llm.RoleUser, Content: "Hello"},
				{Role: llm.RoleAssistant, Content: "Hi there"},
			}))
		})
	})

	Describe("All", func() {
		It("returns a copy that cannot mutate the conversation", func() {
			c := conversation.New(llm.UserMessage("Hello"))
			msgs := c.All()
			msgs[0].Content = "tampered"

			Expect(c.All()[0].Content).To(Equal("Hello"))
		})
	})

	Describe("Clear", func() {
		It("empties a four message conversation", func() {
			c := conversation.New(
				llm.UserMessage("Hello"),
				llm.AssistantMessage("Hi there"),
				llm.UserMessage("How are you?"),
				llm.AssistantMessage("Fine."),
			)

			Expect(c.Clear().IsEmpty()).To(BeTrue())
		})

		It("is empty regardless of prior size", func() {
			for _, n := range []int{0, 1, 7, 100} {
				c := conversation.Conversation{}
				for i := 0; i < n; i++ {
					c = c.Append(llm.UserMessage("x"))
				}
				Expect(c.Clear().Len()).To(Equal(0))
			}
		})
	})
})
