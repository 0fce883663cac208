package config_test

import (
	"time"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/gridplug/pkg/config"
)

var _ = Describe("Config", func() {
	It("should create missing sections on access", func() {
		cfg := &config.Config{}

		Expect(cfg.GetLog()).NotTo(BeNil())
		Expect(cfg.GetPlugin()).NotTo(BeNil())
		Expect(cfg.GetPolicy()).NotTo(BeNil())
		Expect(cfg.GetMetrics()).NotTo(BeNil())
		Expect(cfg.GetLog()).To(BeIdenticalTo(cfg.Log))
	})

	It("should filter instances by category in order", func() {
		cfg := &config.Config{
			Instances: []*config.InstanceConfig{
				{Category: config.CategoryNetwork, Name: "tcp"},
				{Category: config.CategoryResource, Name: "unixfilesystem", Instance: "demoResc"},
				nil,
				{Category: config.CategoryNetwork, Name: "ssl"},
			},
		}

		network := cfg.InstancesFor(config.CategoryNetwork)
		Expect(network).To(HaveLen(2))
		Expect(network[0].Name).To(Equal("tcp"))
		Expect(network[1].Name).To(Equal("ssl"))

		Expect(cfg.InstancesFor("database")).To(BeEmpty())
	})
})

var _ = Describe("PluginConfig", func() {
	It("should return the configured category", func() {
		network := &config.CategoryConfig{StartOperation: "tcp_start"}
		resource := &config.CategoryConfig{}
		cfg := &config.PluginConfig{Network: network, Resource: resource}

		Expect(cfg.Category(config.CategoryNetwork)).To(BeIdenticalTo(network))
		Expect(cfg.Category(config.CategoryResource)).To(BeIdenticalTo(resource))
		Expect(cfg.Category("database")).To(BeNil())
	})

	It("should tolerate a nil receiver", func() {
		var cfg *config.PluginConfig

		Expect(cfg.Category(config.CategoryNetwork)).To(BeNil())
	})
})

var _ = Describe("InstanceConfig", func() {
	It("should fall back to the plugin name", func() {
		Expect((&config.InstanceConfig{Name: "tcp"}).GetInstance()).To(Equal("tcp"))
		Expect((&config.InstanceConfig{Name: "tcp", Instance: "tcp6"}).GetInstance()).To(Equal("tcp6"))
	})
})

var _ = Describe("IsEnabled", func() {
	enabled, disabled := true, false

	DescribeTable("PolicyConfig",
		func(cfg *config.PolicyConfig, want bool) {
			Expect(cfg.IsEnabled()).To(Equal(want))
		},
		Entry("nil config", nil, false),
		Entry("unset", &config.PolicyConfig{}, false),
		Entry("enabled", &config.PolicyConfig{Enabled: &enabled}, true),
		Entry("disabled", &config.PolicyConfig{Enabled: &disabled}, false),
	)

	DescribeTable("MetricsConfig",
		func(cfg *config.MetricsConfig, want bool) {
			Expect(cfg.IsEnabled()).To(Equal(want))
		},
		Entry("nil config", nil, false),
		Entry("unset", &config.MetricsConfig{}, false),
		Entry("enabled", &config.MetricsConfig{Enabled: &enabled}, true),
	)
})

var _ = Describe("Duration", func() {
	Describe("UnmarshalText", func() {
		It("should parse valid duration strings", func() {
			var d config.Duration

			Expect(d.UnmarshalText([]byte("1m30s"))).To(Succeed())
			Expect(d.ToDuration()).To(Equal(90 * time.Second))
		})

		It("should reject invalid strings", func() {
			var d config.Duration

			Expect(d.UnmarshalText([]byte("soon"))).NotTo(Succeed())
		})

		It("should reject negative durations", func() {
			var d config.Duration

			err := d.UnmarshalText([]byte("-5s"))
			Expect(errors.Is(err, config.ErrNegativeDuration)).To(BeTrue())
		})
	})

	It("should marshal to its string form", func() {
		text, err := config.Duration(5 * time.Second).MarshalText()

		Expect(err).NotTo(HaveOccurred())
		Expect(string(text)).To(Equal("5s"))
		Expect(config.Duration(time.Minute).String()).To(Equal("1m0s"))
	})

	It("should describe itself as a string schema", func() {
		schema := config.Duration(0).JSONSchema()

		Expect(schema.Type).To(Equal("string"))
		Expect(schema.Pattern).NotTo(BeEmpty())
	})
})
