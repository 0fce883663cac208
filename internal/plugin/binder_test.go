package plugin_test

import (
	"context"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/gridplug/internal/native/nativetest"
	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

var _ = Describe("Binder", func() {
	var (
		ctx    context.Context
		lib    *nativetest.Library
		binder *plugin.Binder
	)

	BeforeEach(func() {
		ctx = context.Background()
		lib = nativetest.NewLibrary("/plugins/network/libtcp.so").
			WithFunc("tcp_open", func(...uintptr) uintptr { return 1 }).
			WithFunc("tcp_open_v2", func(...uintptr) uintptr { return 2 }).
			WithFunc("tcp_close", func(...uintptr) uintptr { return 0 }).
			WithFunc("tcp_start", func(...uintptr) uintptr { return 0 }).
			WithFunc("tcp_stop", func(...uintptr) uintptr { return 0 })
		binder = plugin.NewBinder("tcp", stubHandle, nil, nil, logger.NewNoOpLogger())
	})

	It("should reject an empty binding list", func() {
		table, _, err := binder.Bind(lib, nil, plugin.Lifecycle{})

		Expect(errors.Is(err, plugin.ErrEmptyOperationList)).To(BeTrue())
		Expect(table).To(BeNil())
	})

	It("should bind every resolvable operation", func() {
		table, ops, err := binder.Bind(lib, []plugin.Binding{
			{Name: "open", Symbol: "tcp_open"},
			{Name: "close", Symbol: "tcp_close"},
		}, plugin.Lifecycle{})

		Expect(err).NotTo(HaveOccurred())
		Expect(table.Names()).To(Equal([]string{"close", "open"}))
		Expect(ops.Start).To(BeNil())
		Expect(ops.Stop).To(BeNil())

		op, ok := table.Lookup("open")
		Expect(ok).To(BeTrue())
		Expect(op.Symbol()).To(Equal("tcp_open"))
	})

	It("should skip entries with an empty name or symbol", func() {
		table, _, err := binder.Bind(lib, []plugin.Binding{
			{Name: "", Symbol: "tcp_open"},
			{Name: "close", Symbol: ""},
			{Name: "open", Symbol: "tcp_open"},
		}, plugin.Lifecycle{})

		Expect(err).NotTo(HaveOccurred())
		Expect(table.Names()).To(Equal([]string{"open"}))
	})

	It("should skip unresolved symbols without failing", func() {
		table, _, err := binder.Bind(lib, []plugin.Binding{
			{Name: "open", Symbol: "tcp_open"},
			{Name: "read", Symbol: "tcp_read"},
		}, plugin.Lifecycle{})

		Expect(err).NotTo(HaveOccurred())
		Expect(table.Names()).To(Equal([]string{"open"}))

		_, err = table.Invoke(ctx, "read")
		Expect(errors.Is(err, plugin.ErrOperationNotFound)).To(BeTrue())
	})

	It("should let the later of two duplicate names win", func() {
		table, _, err := binder.Bind(lib, []plugin.Binding{
			{Name: "open", Symbol: "tcp_open"},
			{Name: "open", Symbol: "tcp_open_v2"},
		}, plugin.Lifecycle{})

		Expect(err).NotTo(HaveOccurred())
		Expect(table.Len()).To(Equal(1))

		result, err := table.Invoke(ctx, "open")
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(plugin.Result(2)))
	})

	It("should succeed with an empty table when nothing resolves", func() {
		table, _, err := binder.Bind(lib, []plugin.Binding{
			{Name: "read", Symbol: "tcp_read"},
			{Name: "write", Symbol: "tcp_write"},
		}, plugin.Lifecycle{})

		Expect(err).NotTo(HaveOccurred())
		Expect(table.Len()).To(BeZero())
	})

	It("should bind configured lifecycle operations", func() {
		_, ops, err := binder.Bind(lib, []plugin.Binding{
			{Name: "open", Symbol: "tcp_open"},
		}, plugin.Lifecycle{Start: "tcp_start", Stop: "tcp_stop"})

		Expect(err).NotTo(HaveOccurred())
		Expect(ops.Start.Symbol()).To(Equal("tcp_start"))
		Expect(ops.Stop.Symbol()).To(Equal("tcp_stop"))
	})

	It("should fail when a named start operation is missing", func() {
		_, _, err := binder.Bind(lib, []plugin.Binding{
			{Name: "open", Symbol: "tcp_open"},
			{Name: "close", Symbol: "tcp_close"},
		}, plugin.Lifecycle{Start: "tcp_begin", Stop: "tcp_stop"})

		Expect(errors.Is(err, plugin.ErrStartOperationMissing)).To(BeTrue())
	})

	It("should fail when a named stop operation is missing", func() {
		_, _, err := binder.Bind(lib, []plugin.Binding{
			{Name: "open", Symbol: "tcp_open"},
		}, plugin.Lifecycle{Start: "tcp_start", Stop: "tcp_end"})

		Expect(errors.Is(err, plugin.ErrStopOperationMissing)).To(BeTrue())
		Expect(errors.Is(err, plugin.ErrStartOperationMissing)).To(BeFalse())
	})
})
