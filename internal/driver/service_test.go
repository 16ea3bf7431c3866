package driver_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"echodl/internal/driver"
	"echodl/internal/logging"
	"echodl/internal/services"
)

const fakeDriverEnv = "ECHODL_FAKE_DRIVER"

// TestMain lets the test binary stand in for the driver: when fakeDriverEnv
// is set it serves /status on the --port it was given.
func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeDriverEnv); mode != "" {
		runFakeDriver(mode)
		return
	}
	os.Exit(m.Run())
}

func runFakeDriver(mode string) {
	if mode == "exit" {
		os.Exit(2)
	}
	port := ""
	for _, arg := range os.Args[1:] {
		if value, ok := strings.CutPrefix(arg, "--port="); ok {
			port = value
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value":{"ready":true}}`)
	})
	if err := http.ListenAndServe("127.0.0.1:"+port, mux); err != nil {
		os.Exit(3)
	}
}

func TestLauncherStartsAndStopsDriver(t *testing.T) {
	t.Setenv(fakeDriverEnv, "serve")
	launcher := driver.NewLauncher(10*time.Second, logging.NewNop())

	svc, err := launcher.Start(context.Background(), os.Args[0])
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	resp, err := http.Get(svc.URL() + "/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	client := &http.Client{Timeout: time.Second}
	if resp, err := client.Get(svc.URL() + "/status"); err == nil {
		resp.Body.Close()
		t.Fatal("driver still answering after Stop")
	}
}

func TestLauncherReportsEarlyExit(t *testing.T) {
	t.Setenv(fakeDriverEnv, "exit")
	launcher := driver.NewLauncher(10*time.Second, logging.NewNop())

	_, err := launcher.Start(context.Background(), os.Args[0])
	if !errors.Is(err, services.ErrDriverUnavailable) {
		t.Fatalf("error = %v, want ErrDriverUnavailable", err)
	}
}

func TestLauncherMissingBinary(t *testing.T) {
	launcher := driver.NewLauncher(time.Second, logging.NewNop())
	_, err := launcher.Start(context.Background(), "/nonexistent/chromedriver")
	if !errors.Is(err, services.ErrDriverUnavailable) {
		t.Fatalf("error = %v, want ErrDriverUnavailable", err)
	}
}
