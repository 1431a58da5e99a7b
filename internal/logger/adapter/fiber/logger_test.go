package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	adapter "github.com/imaginify/usersync/internal/logger/adapter/fiber"

	"github.com/imaginify/usersync/internal/logger"
)

// expectedLoggerJSONFormat implements loggers default json format.
type expectedLoggerJSONFormat struct {
	IP           net.IP    `json:"IP"`
	Status       int       `json:"status"`
	XPerformance float32   `json:"X-Performance"`
	URI          string    `json:"URI"`
	Method       string    `json:"method"`
	Host         string    `json:"host"`
	SvixID       string    `json:"svix-id"`
	Time         time.Time `json:"time"`
}

func consoleConfig() adapter.Config {
	return adapter.Config{
		Config: logger.Log{
			EnableAccessLogToConsole: true,
			DisableCheckAlive:        true,
			Console:                  logger.Console{Enabled: true},
		},
		CheckAliveURI: "/checkalive",
	}
}

func TestNew(t *testing.T) {
	type arguments struct {
		config  adapter.Config
		method  string
		target  string
		headers map[string]string
	}

	tests := []struct {
		name   string
		args   arguments
		output *expectedLoggerJSONFormat
	}{
		{
			name: "empty no output at all",
			args: arguments{
				method: fiber.MethodGet,
				target: "/",
			},
		},
		{
			name: "get / log to console json",
			args: arguments{
				config: consoleConfig(),
				method: fiber.MethodGet,
				target: "/",
			},
			output: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusOK,
				URI:    "/",
				Method: fiber.MethodGet,
				Host:   "example.com",
			},
		},
		{
			name: "get log with params",
			args: arguments{
				config: consoleConfig(),
				method: fiber.MethodGet,
				target: "/?redirect_url=%2Fapi%2Fme",
			},
			output: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusOK,
				URI:    "/?redirect_url=%2Fapi%2Fme",
				Method: fiber.MethodGet,
				Host:   "example.com",
			},
		},
		{
			name: "webhook delivery logs svix-id",
			args: arguments{
				config:  consoleConfig(),
				method:  fiber.MethodPost,
				target:  "/api/webhooks/clerk",
				headers: map[string]string{"svix-id": "msg_2abc"},
			},
			output: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusNoContent,
				URI:    "/api/webhooks/clerk",
				Method: fiber.MethodPost,
				Host:   "example.com",
				SvixID: "msg_2abc",
			},
		},
		{
			name: "unknown route is logged with 404",
			args: arguments{
				config: consoleConfig(),
				method: fiber.MethodGet,
				target: "/no_path//?test=123",
			},
			output: &expectedLoggerJSONFormat{
				IP:     net.ParseIP("0.0.0.0"),
				Status: fiber.StatusNotFound,
				URI:    "/no_path//?test=123",
				Method: fiber.MethodGet,
				Host:   "example.com",
			},
		},
		{
			name: "check alive is not logged",
			args: arguments{
				config: consoleConfig(),
				method: fiber.MethodGet,
				target: "/checkalive",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := testMiddlewareHelper(t, tt.args.method, tt.args.target, tt.args.headers, tt.args.config)
			assert.NoError(t, err)

			if tt.output == nil {
				assert.Empty(t, output)
				return
			}

			if output == "" {
				t.Fatal("expected output but got no output")
			}

			var decodedOutput expectedLoggerJSONFormat
			if err = json.Unmarshal([]byte(output), &decodedOutput); err != nil {
				t.Fatal(err)
			}

			assert.Equal(t, tt.output.Host, decodedOutput.Host)
			assert.Equal(t, tt.output.Method, decodedOutput.Method)
			assert.Equal(t, tt.output.Status, decodedOutput.Status)
			assert.Equal(t, tt.output.IP, decodedOutput.IP)
			assert.Equal(t, tt.output.URI, decodedOutput.URI)
			assert.Equal(t, tt.output.SvixID, decodedOutput.SvixID)
		})
	}
}

func testMiddlewareHelper(
	t *testing.T,
	method, target string,
	headers map[string]string,
	adapterConfig adapter.Config,
) (string, error) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	// capture stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(adapter.New(adapterConfig))

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("hello test")
	})
	app.Get("/checkalive", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})
	app.Post("/api/webhooks/clerk", func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	_, err := app.Test(req, -1)

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	// back to normal state
	_ = w.Close()
	os.Stdout = stdout // restoring the real stdout
	os.Stderr = stderr // restoring the real stderr

	return <-outC, err
}
