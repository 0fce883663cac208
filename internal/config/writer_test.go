package config_test

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smykla-skalski/gridplug/internal/config"
	"github.com/smykla-skalski/gridplug/internal/schema"
	pkgConfig "github.com/smykla-skalski/gridplug/pkg/config"
)

var _ = Describe("Writer", func() {
	var (
		homeDir string
		workDir string
		writer  *config.Writer
	)

	BeforeEach(func() {
		tmpDir := GinkgoT().TempDir()
		homeDir = filepath.Join(tmpDir, "home")
		workDir = filepath.Join(tmpDir, "work")

		writer = config.NewWriterWithDirs(homeDir, workDir)
	})

	It("should create the global config with private permissions", func() {
		Expect(writer.IsGlobalConfigExists()).To(BeFalse())
		Expect(writer.WriteGlobal(config.DefaultConfig())).To(Succeed())
		Expect(writer.IsGlobalConfigExists()).To(BeTrue())

		info, err := os.Stat(writer.GlobalConfigPath())
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(config.ConfigFileMode)))

		dirInfo, err := os.Stat(filepath.Dir(writer.GlobalConfigPath()))
		Expect(err).NotTo(HaveOccurred())
		Expect(dirInfo.Mode().Perm()).To(Equal(os.FileMode(config.ConfigDirMode)))
	})

	It("should start the file with the schema directive", func() {
		Expect(writer.WriteProject(config.DefaultConfig())).To(Succeed())

		data, err := os.ReadFile(writer.ProjectConfigPath())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix(schema.SchemaDirective() + "\n"))
		Expect(string(data)).To(ContainSubstring(`level = 'info'`))
	})

	It("should reject a nil config", func() {
		err := writer.WriteFile(filepath.Join(workDir, "x.toml"), nil)
		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
	})

	It("should not overwrite an existing file with WriteNew", func() {
		path := writer.ProjectConfigPath()

		Expect(writer.WriteNew(path, config.DefaultConfig())).To(Succeed())
		Expect(writer.IsProjectConfigExists()).To(BeTrue())

		err := writer.WriteNew(path, config.DefaultConfig())
		Expect(errors.Is(err, config.ErrConfigExists)).To(BeTrue())
	})

	It("should round-trip through the loader", func() {
		cfg := config.DefaultConfig()
		cfg.Plugin.Home = "/opt/plugins"
		cfg.Plugin.Network.StartOperation = "tcp_start"
		cfg.Plugin.Network.Operations = []*pkgConfig.OperationConfig{{Name: "open", Symbol: "tcp_open"}}
		cfg.Instances = []*pkgConfig.InstanceConfig{
			{Category: pkgConfig.CategoryNetwork, Name: "tcp", Context: "port=1247"},
		}
		cfg.Policy.Rules = []*pkgConfig.PolicyRuleConfig{
			{Name: "no-writes", Operation: "*_write", Phase: "pre", Action: "block"},
		}

		Expect(writer.WriteProject(cfg)).To(Succeed())

		loaded, err := config.NewKoanfLoaderWithDirs(homeDir, workDir).Load(nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(loaded.GetPlugin().Home).To(Equal("/opt/plugins"))
		Expect(loaded.GetPlugin().Network.StartOperation).To(Equal("tcp_start"))
		Expect(loaded.GetPlugin().Network.Operations).To(HaveLen(1))
		Expect(loaded.Instances).To(HaveLen(1))
		Expect(loaded.Instances[0].Context).To(Equal("port=1247"))
		Expect(loaded.GetPolicy().Rules).To(HaveLen(1))
		Expect(loaded.GetMetrics().ShutdownTimeout).To(Equal(cfg.Metrics.ShutdownTimeout))
	})
})
