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

package server

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// healthInfo is the response of the health endpoint. Host fields are
// best effort and may be empty when the probe fails.
type healthInfo struct {
	Status        string `json:"status"`
	ServerUptime  string `json:"serverUptime"`
	Hostname      string `json:"hostname,omitempty"`
	Platform      string `json:"platform,omitempty"`
	HostUptimeSec uint64 `json:"hostUptimeSec,omitempty"`
}

// handleGetHealth reports process and host status for the dashboard
// footer and for simple liveness probes.
func (s *Server) handleGetHealth(w http.ResponseWriter, _ *http.Request) {
	info := healthInfo{
		Status:       "ok",
		ServerUptime: time.Since(s.started).Round(time.Second).String(),
	}

	hostInfo, err := host.Info()
	if err != nil {
		// A failed host probe must not fail the health check.
		s.logger.Warn("Failed to read host info", "error", err)
	} else {
		info.Hostname = hostInfo.Hostname
		info.Platform = hostInfo.Platform
		info.HostUptimeSec = hostInfo.Uptime
	}

	s.writeJSON(w, info)
}
