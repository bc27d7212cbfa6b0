// wiretap captures the raw rawman response body of one AMI action from a
// live Asterisk server to a file, for building test fixtures against
// internal/ami.
// Adapted from the teacher's raw-TCP AMI capture tool: same sanitizer,
// same CLI shape, repointed at the HTTP rawman endpoint devicestated
// actually talks to.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

func main() {
	host := flag.String("host", "127.0.0.1", "Asterisk rawman host")
	port := flag.Int("port", 8088, "Asterisk rawman port")
	prefix := flag.String("prefix", "asterisk", "rawman URL prefix")
	user := flag.String("user", "admin", "AMI username")
	secret := flag.String("secret", "", "AMI secret")
	action := flag.String("action", "ExtensionStateList", "AMI action to capture")
	outDir := flag.String("outdir", "testdata/captures", "Output directory for captures")
	sanitize := flag.String("sanitize", "", "Sanitize a capture file in-place (keeps .bak)")
	flag.Parse()

	if *sanitize != "" {
		if err := sanitizeFile(*sanitize); err != nil {
			fmt.Fprintf(os.Stderr, "sanitize error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("sanitized:", *sanitize)
		return
	}

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "error: -secret is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := capture(*host, *port, *prefix, *user, *secret, *action, *outDir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func capture(host string, port int, prefix, user, secret, action, outDir string) error {
	base := fmt.Sprintf("http://%s:%d/%s/rawman", host, port, prefix)
	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Printf("logging in to %s...\n", base)
	if _, err := rawmanGet(client, base, "Login", map[string]string{
		"Username": user,
		"Secret":   secret,
	}); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	fmt.Printf("capturing %s...\n", action)
	body, err := rawmanGet(client, base, action, nil)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	filename := filepath.Join(outDir, time.Now().Format("20060102-150405")+"-"+action+".raw")
	if err := os.WriteFile(filename, body, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	fmt.Printf("wrote %s (%d bytes)\n", filename, len(body))
	return nil
}

func rawmanGet(client *http.Client, base, action string, params map[string]string) ([]byte, error) {
	q := url.Values{}
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}

	resp, err := client.Get(base + "?" + q.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var (
	ipPattern       = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	phonePattern    = regexp.MustCompile(`\b1?\d{10}\b`)
	secretPattern   = regexp.MustCompile(`(?i)(Secret:\s*).+`)
	passwordPattern = regexp.MustCompile(`(?i)(Password:\s*).+`)
)

func sanitizeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Create backup
	bakPath := path + ".bak"
	if err := os.WriteFile(bakPath, data, 0o644); err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		// Redact secrets/passwords
		line = secretPattern.ReplaceAllString(line, "${1}REDACTED")
		line = passwordPattern.ReplaceAllString(line, "${1}REDACTED")

		// Redact IPs (but preserve localhost)
		line = ipPattern.ReplaceAllStringFunc(line, func(ip string) string {
			if ip == "127.0.0.1" {
				return ip
			}
			return "10.0.0.1"
		})

		// Redact phone numbers in CallerID fields
		if strings.Contains(line, "CallerID") || strings.Contains(line, "ConnectedLine") {
			line = phonePattern.ReplaceAllString(line, "15550001234")
		}

		lines[i] = line
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}
