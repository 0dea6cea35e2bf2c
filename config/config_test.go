package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/kahefi/epcis-graph/config"
	"github.com/kahefi/epcis-graph/materialize"
	"github.com/kahefi/epcis-graph/owl"
)

var _ = Describe("Defaults", func() {
	It("matches the documented configuration surface", func() {
		d := config.Defaults()
		Expect(d.DatabasePath).To(Equal("./data"))
		Expect(d.Reasoning.DefaultProfile).To(Equal("el"))
		Expect(d.Reasoning.EnableInference).To(BeTrue())
		Expect(d.Reasoning.MaxInferenceTimeS).To(Equal(30))
		Expect(d.Materialization.Strategy).To(Equal(string(materialize.StrategyIncremental)))
		Expect(d.Materialization.CacheSizeLimit).To(Equal(10000))
		Expect(d.Materialization.BatchSize).To(Equal(1000))
		Expect(d.Materialization.Parallel).To(BeTrue())
		Expect(d.Sparql.MaxQueryTimeS).To(Equal(60))
		Expect(d.Sparql.MaxResults).To(Equal(1000))
		Expect(d.Validate()).To(Succeed())
	})

	It("resolves the default profile to owl.ProfileEL", func() {
		Expect(config.Defaults().Profile()).To(Equal(owl.ProfileEL))
	})
})

var _ = Describe("Validate", func() {
	var c config.Config

	BeforeEach(func() {
		c = config.Defaults()
	})

	It("rejects an empty database path", func() {
		c.DatabasePath = ""
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects an unrecognized reasoning profile", func() {
		c.Reasoning.DefaultProfile = "full"
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a non-positive max_inference_time_s", func() {
		c.Reasoning.MaxInferenceTimeS = 0
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects an unrecognized materialization strategy", func() {
		c.Materialization.Strategy = "Lazy"
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a non-positive cache_size_limit", func() {
		c.Materialization.CacheSizeLimit = -1
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a non-positive sparql.max_results", func() {
		c.Sparql.MaxResults = 0
		Expect(c.Validate()).To(HaveOccurred())
	})
})

var _ = Describe("Load", func() {
	It("falls back to defaults when no file and no env overrides are present", func() {
		dir, err := os.MkdirTemp("", "epcis-graph-config")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		cwd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		defer os.Chdir(cwd)

		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.Defaults()))
	})

	It("reads recognized options from a YAML file", func() {
		dir, err := os.MkdirTemp("", "epcis-graph-config")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "custom.yaml")
		yaml := "database_path: /var/lib/epcis\nreasoning:\n  default_profile: rl\nmaterialization:\n  strategy: Full\n"
		Expect(os.WriteFile(path, []byte(yaml), 0o644)).To(Succeed())

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DatabasePath).To(Equal("/var/lib/epcis"))
		Expect(cfg.Reasoning.DefaultProfile).To(Equal("rl"))
		Expect(cfg.Materialization.Strategy).To(Equal("Full"))
		Expect(cfg.Sparql.MaxResults).To(Equal(1000))
	})

	It("overlays environment variables over file and defaults", func() {
		dir, err := os.MkdirTemp("", "epcis-graph-config")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		cwd, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		defer os.Chdir(cwd)

		Expect(os.Setenv("EPCIS_GRAPH_DATABASE_PATH", "/env/override")).To(Succeed())
		defer os.Unsetenv("EPCIS_GRAPH_DATABASE_PATH")

		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DatabasePath).To(Equal("/env/override"))
	})

	It("rejects a config file naming an invalid option", func() {
		dir, err := os.MkdirTemp("", "epcis-graph-config")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "bad.yaml")
		Expect(os.WriteFile(path, []byte("reasoning:\n  default_profile: bogus\n"), 0o644)).To(Succeed())

		_, err = config.Load(path)
		Expect(err).To(HaveOccurred())
	})
})
