/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/spf13/cobra"

	"github.com/phuonguno98/statusdeck/internal/config"
	"github.com/phuonguno98/statusdeck/internal/server"
)

var (
	// Serve command specific flags
	servePort           int
	serveHost           string
	serveDefinitionsDir string
	serveOpenBrowser    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decoder dashboard",
	Long: `Start the web-based dashboard for decoding sensor status words.
Select a status category, enter a decimal or hex value, and see the
active flags.

Features:
  • Built-in SBG Ellipse status definitions
  • Upload custom YAML definition files
  • Decimal and hexadecimal input
  • Fully embedded in the binary

Examples:
  # Start server on default port 8080
  statusdeck serve

  # Start on localhost only
  statusdeck serve --host 127.0.0.1 --port 3000`,

	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", config.DefaultHost, "HTTP server listen address")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DefaultPort, "HTTP server port")
	serveCmd.Flags().StringVarP(&serveDefinitionsDir, "definitions-dir", "d", "",
		"Directory to store definition files (default: definitions)")
	serveCmd.Flags().BoolVar(&serveOpenBrowser, "open-browser", false, "Open browser automatically after server starts")
}

// createServerInstance encapsulates server creation logic for testing.
func createServerInstance(definitionsDir string, logger *slog.Logger) (*server.Server, error) {
	// Set default definitions directory
	if definitionsDir == "" {
		definitionsDir = getDefaultDefinitionsDir()
	}

	absDir, err := filepath.Abs(definitionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve definitions directory: %w", err)
	}

	return server.NewServer(absDir, logger)
}

func runServe(_ *cobra.Command, _ []string) error {
	// Respect global 'logLevel' and 'logFile' from root.go
	logger := InitLogger(logLevel, logFile)

	cfg := config.New()
	cfg.Host = serveHost
	cfg.Port = servePort
	cfg.LogLevel = logLevel
	cfg.LogFile = logFile
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("Starting StatusDeck Dashboard",
		"host", cfg.Host,
		"port", cfg.Port,
	)

	// Host snapshot for support logs; best effort only.
	if hostInfo, err := host.Info(); err == nil {
		logger.Info("Host info",
			"hostname", hostInfo.Hostname,
			"platform", hostInfo.Platform,
			"os", hostInfo.OS,
		)
	}

	srv, err := createServerInstance(serveDefinitionsDir, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, initiating shutdown", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if cfg.Host != "0.0.0.0" {
		serverURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}

	fmt.Printf("\nStatusDeck Dashboard is running!\n")
	fmt.Printf("URL: %s\n", serverURL)
	fmt.Printf("Definitions: %s\n\n", srv.DefinitionsDir())

	if serveOpenBrowser {
		go openBrowserURL(serverURL)
	}

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	logger.Info("Server stopped")
	return nil
}

func getDefaultDefinitionsDir() string {
	exePath, err := os.Executable()
	if err != nil {
		return "definitions"
	}
	return filepath.Join(filepath.Dir(exePath), "definitions")
}

func openBrowserURL(url string) {
	time.Sleep(500 * time.Millisecond)
	var cmd *exec.Cmd
	switch {
	case fileExists("C:\\Windows\\System32\\rundll32.exe"):
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case fileExists("/usr/bin/xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case fileExists("/usr/bin/open"):
		cmd = exec.Command("open", url)
	default:
		return
	}
	if err := cmd.Start(); err != nil {
		// Browser opening is optional; surface the error for debugging only.
		fmt.Fprintf(os.Stderr, "Failed to open browser: %v\n", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
