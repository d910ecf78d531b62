package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crimemap/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "crimemap.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestCheckConfigFile_ReportsParserRules(t *testing.T) {
	path := writeConfigFile(t, config.ExampleYAML())

	var out bytes.Buffer
	if err := checkConfigFile(&out, path); err != nil {
		t.Fatalf("check config: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Configuration validated: " + path,
		"Periods: 2019, 2020, 2021, 2022, 2023",
		"Region mode: open",
		"Reject substrings: Command Station, Source, Kenya",
		"Reject labels: KAPU¹, Railways¹",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestCheckConfigFile_RejectsInvalidParserRules(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "closed mode without known regions",
			content: "parser:\n  region_mode: \"closed\"\n",
			wantErr: "parser.region_mode closed requires parser.known_regions",
		},
		{
			name:    "two markers for one period",
			content: "parser:\n  period_markers: [\"2023\", \"FY 2023=2023\"]\n",
			wantErr: "period 2023 declared by both",
		},
		{
			name:    "marker without a period",
			content: "parser:\n  period_markers: [\"Summary=\"]\n",
			wantErr: "parser.period_markers[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)

			var out bytes.Buffer
			err := checkConfigFile(&out, path)
			if err == nil {
				t.Fatalf("expected validation error, output:\n%s", out.String())
			}
			if !strings.Contains(err.Error(), "config validation failed in "+path) {
				t.Fatalf("expected error to name the config file, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in error, got %v", tt.wantErr, err)
			}
			if out.Len() != 0 {
				t.Fatalf("expected no rule summary for invalid config, got:\n%s", out.String())
			}
		})
	}
}

func TestCheckConfigFile_MissingFile(t *testing.T) {
	err := checkConfigFile(&bytes.Buffer{}, filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config failed") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestDescribeParserRules(t *testing.T) {
	var out bytes.Buffer
	err := describeParserRules(&out, config.ParserConfig{
		PeriodMarkers: []string{"2022", "FY 2023=2023"},
		RegionMode:    "closed",
		KnownRegions:  []string{"Kisumu", "Nairobi City"},
	})
	if err != nil {
		t.Fatalf("describe rules: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Periods: 2022, 2023",
		`"FY 2023" starts 2023`,
		"Region mode: closed (2 known regions)",
		"Reject substrings: none",
		"Reject labels: none",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, `"2022" starts`) {
		t.Fatalf("plain year markers need no label line:\n%s", text)
	}
}

func TestResolveConfigEditPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		flag string
		used string
		want string
	}{
		{name: "flag wins", flag: "./custom.yaml", used: "/tmp/active.yaml", want: "./custom.yaml"},
		{name: "active config", flag: " ", used: "/tmp/active.yaml", want: "/tmp/active.yaml"},
		{name: "home fallback", want: filepath.Join(home, ".crimemap.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveConfigEditPath(tt.flag, tt.used)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEnsureConfigFileWithTemplate_WritesValidTemplateOnce(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "crimemap.yaml")

	created, err := ensureConfigFileWithTemplate(configPath)
	if err != nil || !created {
		t.Fatalf("expected template to be created, created=%v err=%v", created, err)
	}
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected config file mode 0600, got %o", info.Mode().Perm())
	}
	if err := checkConfigFile(&bytes.Buffer{}, configPath); err != nil {
		t.Fatalf("expected written template to validate: %v", err)
	}

	created, err = ensureConfigFileWithTemplate(configPath)
	if err != nil || created {
		t.Fatalf("expected existing file to be kept, created=%v err=%v", created, err)
	}
}

func TestEditorCommand(t *testing.T) {
	if got := resolveEditorValue("", "nano"); got != "nano" {
		t.Fatalf("expected $EDITOR fallback, got %q", got)
	}
	if got := resolveEditorValue("", ""); got != "vi" {
		t.Fatalf("expected vi default, got %q", got)
	}

	cmd, err := buildEditorCommand(resolveEditorValue("code --wait", "nano"), "/tmp/crimemap.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmd.Args) != 3 || cmd.Args[0] != "code" || cmd.Args[1] != "--wait" || cmd.Args[2] != "/tmp/crimemap.yaml" {
		t.Fatalf("unexpected command args: %#v", cmd.Args)
	}

	if _, err := buildEditorCommand("   ", "/tmp/crimemap.yaml"); err == nil {
		t.Fatalf("expected error for empty editor")
	}
}
