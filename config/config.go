package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"crimemap/internal/classify"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyWorkbookPath            = "workbook.path"
	KeyWorkbookSheetMatch      = "workbook.sheet_match"
	KeyParserPeriodMarkers     = "parser.period_markers"
	KeyParserRejectSubstrings  = "parser.reject_substrings"
	KeyParserRejectLabels      = "parser.reject_labels"
	KeyParserRegionMode        = "parser.region_mode"
	KeyParserKnownRegions      = "parser.known_regions"
	KeyBoundariesPath          = "boundaries.path"
	KeyBoundariesProperty      = "boundaries.property"
	KeyExportQuoting           = "export.quoting"
	KeyExportFilePrefix        = "export.file_prefix"
	KeyMapScale                = "map.scale"
	KeyMapTitle                = "map.title"
	KeyLogLevel                = "log.level"
	KeyLogFormat               = "log.format"
	DefaultSheetMatch          = "Table 17.3"
	DefaultBoundariesProperty  = "COUNTY"
	DefaultExportFilePrefix    = "kenya-crime-data"
	QuotingNaive               = "naive"
	QuotingRFC4180             = "rfc4180"
	ScaleFixed                 = "fixed"
	ScaleQuantile              = "quantile"
	defaultMapTitle            = "Kenya Violent Crimes"
	defaultWorkbookPath        = "./Governance-Peace-and-Security.xlsx"
	defaultBoundariesPath      = "./kenya-counties.geojson"
	defaultRegionMode          = string(classify.RegionModeOpen)
	defaultLogLevel            = "info"
	defaultLogFormat           = "text"
	defaultExportQuoting       = QuotingRFC4180
	defaultMapScale            = ScaleFixed
	minimumPeriodMarkerValue   = 1
	maximumPeriodMarkerDigits  = 9
	unsupportedValueMessageFmt = "validation failed: %s %q is not supported (valid: %s)"
)

type Config struct {
	Workbook   WorkbookConfig   `mapstructure:"workbook"`
	Parser     ParserConfig     `mapstructure:"parser"`
	Boundaries BoundariesConfig `mapstructure:"boundaries"`
	Export     ExportConfig     `mapstructure:"export"`
	Map        MapConfig        `mapstructure:"map"`
	Log        LogConfig        `mapstructure:"log"`
}

type WorkbookConfig struct {
	Path       string `mapstructure:"path"`
	SheetMatch string `mapstructure:"sheet_match" validate:"required"`
}

// ParserConfig is the injected rule set of the report parser. Period markers
// are checked in list order; the first contained marker wins.
type ParserConfig struct {
	PeriodMarkers    []string `mapstructure:"period_markers" validate:"required,min=1,dive,required"`
	RejectSubstrings []string `mapstructure:"reject_substrings"`
	RejectLabels     []string `mapstructure:"reject_labels"`
	RegionMode       string   `mapstructure:"region_mode" validate:"required,oneof=open closed"`
	KnownRegions     []string `mapstructure:"known_regions"`
}

type BoundariesConfig struct {
	Path     string `mapstructure:"path"`
	Property string `mapstructure:"property" validate:"required"`
}

type ExportConfig struct {
	Quoting    string `mapstructure:"quoting" validate:"required"`
	FilePrefix string `mapstructure:"file_prefix" validate:"required"`
}

type MapConfig struct {
	Scale string `mapstructure:"scale" validate:"required"`
	Title string `mapstructure:"title"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

// DefaultPeriodMarkers are the year headers of the 2019-2023 report edition.
func DefaultPeriodMarkers() []string {
	return []string{"2019", "2020", "2021", "2022", "2023"}
}

// DefaultRejectSubstrings reject header repeats, source footnotes and the
// national aggregate line.
func DefaultRejectSubstrings() []string {
	return []string{"Command Station", "Source", "Kenya"}
}

// DefaultRejectLabels is the exact-match denylist of the report sheet: the
// footnoted police units that have no county boundary.
func DefaultRejectLabels() []string {
	return []string{"KAPU¹", "Railways¹"}
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# crimemap configuration
workbook:
  path: "./Governance-Peace-and-Security.xlsx"
  sheet_match: "Table 17.3"

parser:
  # Checked in order; a row label containing a marker starts that period.
  period_markers: ["2019", "2020", "2021", "2022", "2023"]
  reject_substrings: ["Command Station", "Source", "Kenya"]
  # Exact labels that are not regions. An empty list rejects nothing.
  # Editions that repeat county subtotal rows under the police divisions can
  # list the county names here as well, e.g.
  #   reject_labels: ["KAPU¹", "Railways¹", "Mombasa", "Kwale", "Kilifi", ...]
  # and switch to region_mode "closed" with the division names instead.
  reject_labels: ["KAPU¹", "Railways¹"]
  # open: accept every label not rejected; closed: require known_regions.
  region_mode: "open"
  known_regions: []

boundaries:
  path: "./kenya-counties.geojson"
  property: "COUNTY"

export:
  quoting: "rfc4180"   # rfc4180 | naive
  file_prefix: "kenya-crime-data"

map:
  scale: "fixed"       # fixed | quantile
  title: "Kenya Violent Crimes"

log:
  level: "info"
  format: "text"
`
}

// ClassifyRules converts the parser section into classifier rules. Markers
// are "YYYY" or "label=period" entries.
func (c ParserConfig) ClassifyRules() (classify.Rules, error) {
	markers := make([]classify.PeriodMarker, 0, len(c.PeriodMarkers))
	for i, raw := range c.PeriodMarkers {
		marker, err := parsePeriodMarker(raw)
		if err != nil {
			return classify.Rules{}, fmt.Errorf("parser.period_markers[%d]: %w", i, err)
		}
		markers = append(markers, marker)
	}

	return classify.Rules{
		PeriodMarkers:    markers,
		RejectSubstrings: append([]string(nil), c.RejectSubstrings...),
		RejectLabels:     append([]string(nil), c.RejectLabels...),
		KnownRegions:     append([]string(nil), c.KnownRegions...),
		RegionMode:       classify.RegionMode(strings.ToLower(strings.TrimSpace(c.RegionMode))),
	}, nil
}

// Periods returns the period values of the configured markers in order.
func (c ParserConfig) Periods() []int {
	out := make([]int, 0, len(c.PeriodMarkers))
	for _, raw := range c.PeriodMarkers {
		if marker, err := parsePeriodMarker(raw); err == nil {
			out = append(out, marker.Period)
		}
	}
	return out
}

func parsePeriodMarker(raw string) (classify.PeriodMarker, error) {
	label := strings.TrimSpace(raw)
	value := label
	if before, after, found := strings.Cut(label, "="); found {
		label = strings.TrimSpace(before)
		value = strings.TrimSpace(after)
	}
	if label == "" {
		return classify.PeriodMarker{}, fmt.Errorf("empty period marker")
	}
	if len(value) > maximumPeriodMarkerDigits {
		return classify.PeriodMarker{}, fmt.Errorf("period %q is too long", value)
	}
	period, err := strconv.Atoi(value)
	if err != nil || period < minimumPeriodMarkerValue {
		return classify.PeriodMarker{}, fmt.Errorf("period %q must be a positive integer", value)
	}
	return classify.PeriodMarker{Label: label, Period: period}, nil
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateRules(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyWorkbookPath, defaultWorkbookPath)
	v.SetDefault(KeyWorkbookSheetMatch, DefaultSheetMatch)
	v.SetDefault(KeyParserPeriodMarkers, DefaultPeriodMarkers())
	v.SetDefault(KeyParserRejectSubstrings, DefaultRejectSubstrings())
	v.SetDefault(KeyParserRejectLabels, DefaultRejectLabels())
	v.SetDefault(KeyParserRegionMode, defaultRegionMode)
	v.SetDefault(KeyParserKnownRegions, []string{})
	v.SetDefault(KeyBoundariesPath, defaultBoundariesPath)
	v.SetDefault(KeyBoundariesProperty, DefaultBoundariesProperty)
	v.SetDefault(KeyExportQuoting, defaultExportQuoting)
	v.SetDefault(KeyExportFilePrefix, DefaultExportFilePrefix)
	v.SetDefault(KeyMapScale, defaultMapScale)
	v.SetDefault(KeyMapTitle, defaultMapTitle)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFormat, defaultLogFormat)
}

func validateRules(cfg Config) error {
	seen := make(map[int]string, len(cfg.Parser.PeriodMarkers))
	for i, raw := range cfg.Parser.PeriodMarkers {
		marker, err := parsePeriodMarker(raw)
		if err != nil {
			return fmt.Errorf("validation failed: parser.period_markers[%d]: %w", i, err)
		}
		if previous, exists := seen[marker.Period]; exists {
			return fmt.Errorf("validation failed: period %d declared by both %q and %q", marker.Period, previous, raw)
		}
		seen[marker.Period] = raw
	}

	if strings.EqualFold(cfg.Parser.RegionMode, string(classify.RegionModeClosed)) && len(cfg.Parser.KnownRegions) == 0 {
		return fmt.Errorf("validation failed: parser.region_mode closed requires parser.known_regions")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Export.Quoting)) {
	case QuotingNaive, QuotingRFC4180:
	default:
		return fmt.Errorf(unsupportedValueMessageFmt, "export.quoting", cfg.Export.Quoting, "naive, rfc4180")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Map.Scale)) {
	case ScaleFixed, ScaleQuantile:
	default:
		return fmt.Errorf(unsupportedValueMessageFmt, "map.scale", cfg.Map.Scale, "fixed, quantile")
	}

	return nil
}
