package policy_test

import (
	"context"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/gridplug/internal/policy"
)

var _ = Describe("Engine", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewEngine", func() {
		It("should allow everything with no rules", func() {
			engine, err := policy.NewEngine(nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(engine.Size()).To(Equal(0))

			Expect(engine.Before(ctx, "tcp", "tcp_open")).To(Succeed())
			Expect(engine.After(ctx, "tcp", "tcp_open")).To(Succeed())
		})

		DescribeTable("should reject invalid rules",
			func(rule *policy.Rule) {
				_, err := policy.NewEngine([]*policy.Rule{rule})
				Expect(errors.Is(err, policy.ErrInvalidRule)).To(BeTrue())
			},
			Entry("nil rule", nil),
			Entry("missing name", &policy.Rule{Phase: policy.PhasePre, Action: policy.ActionBlock}),
			Entry("unknown phase", &policy.Rule{Name: "r", Phase: "during", Action: policy.ActionBlock}),
			Entry("unknown action", &policy.Rule{Name: "r", Phase: policy.PhasePre, Action: "warn"}),
			Entry("bad instance glob", &policy.Rule{
				Name: "r", Instance: "[tcp", Phase: policy.PhasePre, Action: policy.ActionBlock,
			}),
			Entry("bad operation glob", &policy.Rule{
				Name: "r", Operation: "tcp_[", Phase: policy.PhasePost, Action: policy.ActionBlock,
			}),
		)
	})

	Describe("hooks", func() {
		var engine *policy.Engine

		BeforeEach(func() {
			var err error

			engine, err = policy.NewEngine([]*policy.Rule{
				{
					Name:      "allow-tcp-open",
					Instance:  "tcp",
					Operation: "tcp_open",
					Phase:     policy.PhasePre,
					Action:    policy.ActionAllow,
				},
				{
					Name:      "no-tcp-writes",
					Instance:  "tcp*",
					Operation: "*_write",
					Phase:     policy.PhasePre,
					Action:    policy.ActionBlock,
					Message:   "writes are disabled",
				},
				{
					Name:      "audit-close",
					Operation: "*_close",
					Phase:     policy.PhasePost,
					Action:    policy.ActionBlock,
				},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep rules in order", func() {
			names := make([]string, 0, engine.Size())
			for _, rule := range engine.Rules() {
				names = append(names, rule.Name)
			}

			Expect(names).To(Equal([]string{"allow-tcp-open", "no-tcp-writes", "audit-close"}))
		})

		It("should block a matching pre rule with its message", func() {
			err := engine.Before(ctx, "tcp6", "tcp_write")

			Expect(errors.Is(err, policy.ErrBlocked)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("no-tcp-writes"))
			Expect(err.Error()).To(ContainSubstring("writes are disabled"))
		})

		It("should not apply pre rules in the post phase", func() {
			Expect(engine.After(ctx, "tcp", "tcp_write")).To(Succeed())
		})

		It("should apply post rules only after the call", func() {
			Expect(engine.Before(ctx, "ssl", "ssl_close")).To(Succeed())

			err := engine.After(ctx, "ssl", "ssl_close")
			Expect(errors.Is(err, policy.ErrBlocked)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("audit-close"))
		})

		It("should let the first matching rule decide", func() {
			decision := engine.Evaluate(policy.PhasePre, "tcp", "tcp_open")

			Expect(decision.Rule).NotTo(BeNil())
			Expect(decision.Rule.Name).To(Equal("allow-tcp-open"))
			Expect(decision.Action).To(Equal(policy.ActionAllow))
		})

		It("should fall back to the default action", func() {
			decision := engine.Evaluate(policy.PhasePre, "unix", "unix_read")

			Expect(decision.Rule).To(BeNil())
			Expect(decision.Action).To(Equal(policy.ActionAllow))
		})

		It("should fail when the context is done", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			err := engine.Before(canceled, "tcp", "tcp_open")
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	It("should block unmatched operations with a block default", func() {
		engine, err := policy.NewEngine(nil, policy.WithDefaultAction(policy.ActionBlock))
		Expect(err).NotTo(HaveOccurred())

		err = engine.Before(ctx, "tcp", "tcp_open")
		Expect(errors.Is(err, policy.ErrBlocked)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("rule default"))
	})
})
