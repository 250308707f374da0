package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/memhooks/cmd/memhooks/init"
	"github.com/papercomputeco/memhooks/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".memhooks", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	cfg := &config.Config{}
	Expect(toml.Unmarshal(data, cfg)).To(Succeed())
	return cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "memhooks-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .memhooks directory with default config", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".memhooks"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.Worker.Host).To(Equal("127.0.0.1"))
		Expect(cfg.Worker.Port).To(Equal(uint(37777)))
		Expect(cfg.EventStream.Provider).To(Equal(config.EventStreamNone))
	})

	It("writes the kafka preset", func() {
		Expect(execute("--preset", "kafka")).To(Succeed())

		cfg := loadConfig(tmpDir)
		Expect(cfg.EventStream.Provider).To(Equal(config.EventStreamKafka))
		Expect(cfg.EventStream.Brokers).To(Equal("localhost:9092"))
	})

	It("is idempotent without a preset", func() {
		Expect(execute()).To(Succeed())
		Expect(execute()).To(Succeed())
	})

	It("refuses to overwrite config with an explicit preset", func() {
		Expect(execute()).To(Succeed())
		Expect(execute("--preset", "kafka")).To(MatchError(ContainSubstring("already exists")))
		Expect(loadConfig(tmpDir).EventStream.Provider).To(Equal(config.EventStreamNone))
	})

	It("rejects unknown presets", func() {
		Expect(execute("--preset", "cloud")).To(MatchError(ContainSubstring("unknown preset")))
		_, err := os.Stat(filepath.Join(tmpDir, ".memhooks"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
