package config_test

import (
	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/gridplug/internal/config"
	pkgConfig "github.com/smykla-skalski/gridplug/pkg/config"
)

var _ = Describe("Validator", func() {
	var (
		validator *config.Validator
		cfg       *pkgConfig.Config
	)

	BeforeEach(func() {
		validator = config.NewValidator()
		cfg = config.DefaultConfig()
	})

	It("should accept the defaults", func() {
		Expect(validator.Validate(cfg)).To(Succeed())
	})

	It("should reject a nil config", func() {
		Expect(errors.Is(validator.Validate(nil), config.ErrInvalidConfig)).To(BeTrue())
	})

	It("should accept a complete configuration", func() {
		cfg.Plugin.Network.StartOperation = "tcp_start"
		cfg.Plugin.Resource.Operations = []*pkgConfig.OperationConfig{{Name: "open", Symbol: "ufs_open"}}
		cfg.Instances = []*pkgConfig.InstanceConfig{
			{Category: pkgConfig.CategoryNetwork, Name: "tcp"},
			{Category: pkgConfig.CategoryNetwork, Name: "tcp", Instance: "tcp6"},
			{Category: pkgConfig.CategoryResource, Name: "unix-filesystem"},
		}
		cfg.Policy.Rules = []*pkgConfig.PolicyRuleConfig{
			{Name: "no-writes", Instance: "tcp*", Operation: "*_write", Phase: "pre", Action: "block"},
		}

		Expect(validator.Validate(cfg)).To(Succeed())
	})

	DescribeTable("should reject invalid fields",
		func(mutate func(*pkgConfig.Config), want string) {
			mutate(cfg)

			err := validator.Validate(cfg)
			Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(want))
		},
		Entry("unknown category", func(c *pkgConfig.Config) {
			c.Instances = []*pkgConfig.InstanceConfig{{Category: "database", Name: "postgres"}}
		}, "oneof"),
		Entry("missing instance name", func(c *pkgConfig.Config) {
			c.Instances = []*pkgConfig.InstanceConfig{{Category: pkgConfig.CategoryNetwork}}
		}, "required"),
		Entry("plugin name without alphanumerics", func(c *pkgConfig.Config) {
			c.Instances = []*pkgConfig.InstanceConfig{{Category: pkgConfig.CategoryNetwork, Name: "../"}}
		}, "plugin_name"),
		Entry("bad instance glob", func(c *pkgConfig.Config) {
			c.Policy.Rules = []*pkgConfig.PolicyRuleConfig{{Name: "r", Instance: "[tcp"}}
		}, "glob"),
		Entry("unnamed rule", func(c *pkgConfig.Config) {
			c.Policy.Rules = []*pkgConfig.PolicyRuleConfig{{Operation: "open"}}
		}, "required"),
		Entry("unknown log level", func(c *pkgConfig.Config) {
			c.Log.Level = "trace"
		}, "oneof"),
		Entry("metrics address without port", func(c *pkgConfig.Config) {
			c.Metrics.Address = "localhost"
		}, "hostname_port"),
	)

	It("should reject instances sharing a registry key", func() {
		cfg.Instances = []*pkgConfig.InstanceConfig{
			{Category: pkgConfig.CategoryNetwork, Name: "tcp"},
			{Category: pkgConfig.CategoryNetwork, Name: "ssl", Instance: "tcp"},
		}

		err := validator.Validate(cfg)
		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("network/tcp"))
	})

	It("should reject repeated rule names", func() {
		cfg.Policy.Rules = []*pkgConfig.PolicyRuleConfig{{Name: "r"}, {Name: "r"}}

		Expect(errors.Is(validator.Validate(cfg), config.ErrInvalidConfig)).To(BeTrue())
	})

	It("should reject lifecycle operations on resource plugins", func() {
		cfg.Plugin.Resource.StartOperation = "ufs_start"

		err := validator.Validate(cfg)
		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("network plugins only"))
	})
})
