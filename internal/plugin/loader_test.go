package plugin_test

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/internal/native/nativetest"
	"github.com/smykla-skalski/gridplug/internal/plugin"
)

var _ = Describe("Load", func() {
	var (
		ctx    context.Context
		lib    *nativetest.Library
		opener *nativetest.Opener
		rec    *recordingMetrics
		desc   plugin.Descriptor
		ctor   plugin.Constructor[*stubPlugin]
	)

	BeforeEach(func() {
		ctx = context.Background()
		lib = stubLibrary("stub")
		opener = nativetest.NewOpener().Add(lib)
		rec = &recordingMetrics{}
		desc = plugin.Descriptor{
			Category: "resource",
			Name:     "stub",
			Instance: "stub1",
			Context:  "host=localhost",
		}
		ctor = stubConstructor(openCloseBindings, plugin.Lifecycle{})
	})

	load := func(opts ...plugin.LoadOption) (*stubPlugin, error) {
		opts = append([]plugin.LoadOption{plugin.WithOpener(opener), plugin.WithMetrics(rec)}, opts...)

		return plugin.Load(ctor, desc, pluginDir, opts...)
	}

	Context("with a well-formed library", func() {
		It("should load and dispatch operations by name", func() {
			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			result, err := p.Invoke(ctx, "open")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(plugin.Result(openSentinel)))

			_, err = p.Invoke(ctx, "missing")
			Expect(errors.Is(err, plugin.ErrOperationNotFound)).To(BeTrue())
		})

		It("should keep the library open until the plugin is closed", func() {
			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			Expect(lib.IsOpen()).To(BeTrue())

			Expect(p.Close()).To(Succeed())
			Expect(p.Close()).To(Succeed())
			Expect(lib.CloseCalls()).To(Equal(1))
		})

		It("should refuse calls once the library is released", func() {
			calls := 0
			lib.WithFunc("stub_open", func(...uintptr) uintptr {
				calls++

				return openSentinel
			})

			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Close()).To(Succeed())
			Expect(p.IsClosed()).To(BeTrue())

			result, err := p.Invoke(ctx, "open")
			Expect(errors.Is(err, native.ErrLibraryClosed)).To(BeTrue())
			Expect(result).To(BeZero())
			Expect(calls).To(BeZero())
		})

		It("should expose the load metadata", func() {
			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			Expect(p.Category()).To(Equal("resource"))
			Expect(p.InstanceName()).To(Equal("stub1"))
			Expect(p.Context()).To(Equal("host=localhost"))
			Expect(p.Handle()).To(Equal(stubHandle))
			Expect(p.Version().IsCurrent()).To(BeTrue())
			Expect(p.LibraryPath()).To(Equal(filepath.Join(pluginDir, "libstub"+native.Extension())))
			Expect(p.LoadID()).NotTo(BeEmpty())
			Expect(p.Operations().Names()).To(Equal([]string{"close", "open"}))
		})

		It("should pass the instance name and context to the factory", func() {
			var gotInstance, gotContext string

			lib.WithFactory(func(instance, context string) uintptr {
				gotInstance, gotContext = instance, context

				return stubHandle
			})

			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			Expect(gotInstance).To(Equal("stub1"))
			Expect(gotContext).To(Equal("host=localhost"))
		})

		It("should default the instance name to the plugin name", func() {
			desc.Instance = ""

			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			Expect(p.InstanceName()).To(Equal("stub"))
		})

		It("should accept a future interface version", func() {
			lib.WithVersion(2.0)

			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			Expect(p.Version().IsFuture()).To(BeTrue())
			Expect(p.Version().String()).To(Equal("2.0.0"))
		})

		It("should count the successful load", func() {
			p, err := load()
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			Expect(rec.loads).To(ConsistOf(loadRecord{"resource", metrics.StatusOK}))
		})
	})

	Context("with a rule engine", func() {
		It("should run the hooks around the call", func() {
			ctrl := gomock.NewController(GinkgoT())
			engine := plugin.NewMockRuleEngine(ctrl)

			gomock.InOrder(
				engine.EXPECT().Before(gomock.Any(), "stub1", "open").Return(nil),
				engine.EXPECT().After(gomock.Any(), "stub1", "open").Return(nil),
			)

			p, err := load(plugin.WithRuleEngine(engine))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(p.Close)

			result, err := p.Invoke(ctx, "open")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(plugin.Result(openSentinel)))
		})
	})

	Context("when the plugin name has no usable characters", func() {
		It("should fail before opening anything", func() {
			desc.Name = "../.."

			p, err := load()
			Expect(errors.Is(err, plugin.ErrNameGenerationFailed)).To(BeTrue())
			Expect(p).To(BeNil())
			Expect(opener.Opened()).To(BeEmpty())
		})
	})

	Context("when the library cannot be opened", func() {
		It("should preserve the linker error", func() {
			desc.Name = "absent"

			p, err := load()
			Expect(errors.Is(err, plugin.ErrLibraryOpenFailed)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("cannot open shared object file"))
			Expect(p).To(BeNil())
			Expect(rec.loads).To(ConsistOf(loadRecord{"resource", metrics.StatusFailed}))
		})
	})

	Context("when the version symbol is missing", func() {
		It("should fail and close the library", func() {
			lib = nativetest.NewLibrary(lib.Path()).
				WithFactory(func(string, string) uintptr { return stubHandle })
			opener = nativetest.NewOpener().Add(lib)

			p, err := load()
			Expect(errors.Is(err, plugin.ErrVersionQueryFailed)).To(BeTrue())
			Expect(errors.Is(err, native.ErrSymbolNotFound)).To(BeTrue())
			Expect(p).To(BeNil())
			Expect(lib.IsOpen()).To(BeFalse())
			Expect(lib.CloseCalls()).To(Equal(1))
		})
	})

	Context("when the factory returns null", func() {
		It("should fail and close the library", func() {
			lib.WithFactory(func(string, string) uintptr { return 0 })

			p, err := load()
			Expect(errors.Is(err, plugin.ErrFactoryFailed)).To(BeTrue())
			Expect(p).To(BeNil())
			Expect(lib.CloseCalls()).To(Equal(1))
		})
	})

	Context("when the factory symbol is missing", func() {
		It("should fail and close the library", func() {
			lib = nativetest.NewLibrary(lib.Path()).WithVersion(1.0)
			opener = nativetest.NewOpener().Add(lib)

			p, err := load()
			Expect(errors.Is(err, plugin.ErrFactoryFailed)).To(BeTrue())
			Expect(p).To(BeNil())
			Expect(lib.CloseCalls()).To(Equal(1))
		})
	})

	Context("when delayed binding fails", func() {
		It("should report an empty binding list", func() {
			ctor = stubConstructor(nil, plugin.Lifecycle{})

			p, err := load()
			Expect(errors.Is(err, plugin.ErrDelayLoadFailed)).To(BeTrue())
			Expect(errors.Is(err, plugin.ErrEmptyOperationList)).To(BeTrue())
			Expect(p).To(BeNil())
			Expect(lib.CloseCalls()).To(Equal(1))
		})

		It("should report a missing start operation", func() {
			ctor = stubConstructor(openCloseBindings, plugin.Lifecycle{Start: "stub_start"})

			p, err := load()
			Expect(errors.Is(err, plugin.ErrDelayLoadFailed)).To(BeTrue())
			Expect(errors.Is(err, plugin.ErrStartOperationMissing)).To(BeTrue())
			Expect(p).To(BeNil())
			Expect(lib.CloseCalls()).To(Equal(1))
		})
	})
})
