package logging

import (
	"fmt"
	"path/filepath"
)

// GenerateLogrotateConfig creates a logrotate stanza for the tunnel's output
// log. stunnel reopens its log on SIGHUP, so postrotate signals the pid
// recorded in its pid file.
func GenerateLogrotateConfig(logDir, toolName string) string {
	logFile := filepath.Join(logDir, toolName+".log")
	pidFile := filepath.Join(logDir, toolName+".pid")

	return fmt.Sprintf(`# Logrotate configuration for %s
# Install: sudo cp this file to /etc/logrotate.d/%s

%s {
    # Rotate weekly
    weekly

    # Keep 8 weeks of logs
    rotate 8

    # Compress old logs
    compress
    delaycompress

    # Don't error if log is missing
    missingok

    # Don't rotate empty logs
    notifempty

    # Ask stunnel to reopen its output file
    postrotate
        [ -s %s ] && kill -HUP $(cat %s) 2>/dev/null || true
    endscript
}
`, toolName, toolName, logFile, pidFile, pidFile)
}
