package metrics_test

import (
	"context"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smykla-skalski/gridplug/internal/metrics"
)

var _ = Describe("Server", func() {
	get := func(url string) (int, string) {
		resp, err := http.Get(url) //nolint:noctx // test helper
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		return resp.StatusCode, string(body)
	}

	start := func(registry *prometheus.Registry) *metrics.Server {
		server, err := metrics.NewServer(metrics.ServerConfig{Address: "127.0.0.1:0"}, registry, nil)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() { done <- server.Start(ctx) }()

		DeferCleanup(func() {
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		Eventually(func() error {
			resp, err := http.Get("http://" + server.Addr() + "/healthz") //nolint:noctx // test helper
			if err == nil {
				resp.Body.Close()
			}

			return err
		}).Should(Succeed())

		return server
	}

	It("should expose the registry", func() {
		registry := prometheus.NewRegistry()
		counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "gridplug_test_total", Help: "test"})
		registry.MustRegister(counter)
		counter.Inc()

		server := start(registry)

		code, body := get("http://" + server.Addr() + "/metrics")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("gridplug_test_total 1"))
	})

	It("should report disabled metrics", func() {
		server := start(nil)

		code, body := get("http://" + server.Addr() + "/metrics")
		Expect(code).To(Equal(http.StatusServiceUnavailable))
		Expect(body).To(ContainSubstring("disabled"))
	})

	It("should fail on an unusable address", func() {
		_, err := metrics.NewServer(metrics.ServerConfig{Address: "256.0.0.1:1"}, nil, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should tolerate repeated Stop calls", func() {
		server, err := metrics.NewServer(metrics.ServerConfig{Address: "127.0.0.1:0"}, nil, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(server.Stop(context.Background())).To(Succeed())
		Expect(server.Stop(context.Background())).To(Succeed())
	})
})
