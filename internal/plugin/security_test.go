package plugin_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/gridplug/internal/plugin"
)

var _ = Describe("Security", func() {
	var tempDir string

	BeforeEach(func() {
		var err error

		// Resolve symlinks in temp dir (macOS /var -> /private/var)
		tempDir, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("ValidatePath", func() {
		DescribeTable("should reject traversal patterns",
			func(path string) {
				err := plugin.ValidatePath(path, tempDir)
				Expect(errors.Is(err, plugin.ErrPathTraversal)).To(BeTrue())
			},
			Entry("simple traversal", "../secret"),
			Entry("nested traversal", "plugins/../../secret"),
			Entry("trailing traversal", "plugins/.."),
		)

		It("should accept libraries inside the directory", func() {
			libPath := filepath.Join(tempDir, "libtcp.so")
			Expect(os.WriteFile(libPath, []byte("elf"), 0o755)).To(Succeed())

			Expect(plugin.ValidatePath(libPath, tempDir)).To(Succeed())
		})

		It("should accept libraries that do not exist yet", func() {
			Expect(plugin.ValidatePath(filepath.Join(tempDir, "libtcp.so"), tempDir)).To(Succeed())
		})

		It("should reject paths outside the directory", func() {
			outside := filepath.Join(tempDir, "outside")
			allowed := filepath.Join(tempDir, "allowed")
			Expect(os.MkdirAll(outside, 0o755)).To(Succeed())
			Expect(os.MkdirAll(allowed, 0o755)).To(Succeed())

			err := plugin.ValidatePath(filepath.Join(outside, "libtcp.so"), allowed)
			Expect(errors.Is(err, plugin.ErrPathNotAllowed)).To(BeTrue())
		})

		It("should resolve symlinks on both sides", func() {
			realDir := filepath.Join(tempDir, "real")
			Expect(os.MkdirAll(realDir, 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(realDir, "libtcp.so"), []byte("elf"), 0o755)).To(Succeed())

			linkDir := filepath.Join(tempDir, "link")
			Expect(os.Symlink(realDir, linkDir)).To(Succeed())

			Expect(plugin.ValidatePath(filepath.Join(linkDir, "libtcp.so"), linkDir)).To(Succeed())
			Expect(plugin.ValidatePath(filepath.Join(linkDir, "libtcp.so"), realDir)).To(Succeed())
		})

		It("should reject symlinks pointing outside the directory", func() {
			outside := filepath.Join(tempDir, "outside")
			allowed := filepath.Join(tempDir, "allowed")
			Expect(os.MkdirAll(outside, 0o755)).To(Succeed())
			Expect(os.MkdirAll(allowed, 0o755)).To(Succeed())

			target := filepath.Join(outside, "libevil.so")
			Expect(os.WriteFile(target, []byte("elf"), 0o755)).To(Succeed())
			Expect(os.Symlink(target, filepath.Join(allowed, "libtcp.so"))).To(Succeed())

			err := plugin.ValidatePath(filepath.Join(allowed, "libtcp.so"), allowed)
			Expect(errors.Is(err, plugin.ErrPathNotAllowed)).To(BeTrue())
		})

		It("should reject empty paths", func() {
			Expect(plugin.ValidatePath("", tempDir)).To(MatchError(ContainSubstring("required")))
		})
	})

	Describe("ValidateExtension", func() {
		DescribeTable("should accept",
			func(path string) {
				Expect(plugin.ValidateExtension(path, ".so")).To(Succeed())
			},
			Entry("exact extension", "libtcp.so"),
			Entry("case insensitive", "libtcp.SO"),
		)

		DescribeTable("should reject",
			func(path string) {
				err := plugin.ValidateExtension(path, ".so")
				Expect(errors.Is(err, plugin.ErrInvalidExtension)).To(BeTrue())
			},
			Entry("wrong extension", "libtcp.dll"),
			Entry("no extension", "libtcp"),
			Entry("similar but different", "libtcp.so.bak"),
		)
	})
})
