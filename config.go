package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v9"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/document"
	"github.com/charmbracelet/dossier/internal/prompt"
	"github.com/charmbracelet/x/exp/ordered"
	xstrings "github.com/charmbracelet/x/exp/strings"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var help = map[string]string{
	"api":            "API to use (google, openai, anthropic...) when no API declares the model.",
	"apis":           "Endpoints, key pools and models of each API.",
	"api-key":        "Use this API key instead of the configured pool.",
	"ask-key":        "Prompt for an API key when no key is configured.",
	"http-proxy":     "HTTP proxy to use for API requests.",
	"model":          "Default model (gemini-2.5-flash, gpt-4o, ...).",
	"models":         "Comma separated models to try in order instead of the fallback chain.",
	"doc":            "Document to include, as a path, URL or - for stdin. Use label=location to name it, unless a file has that exact name.",
	"mode":           "Instructions to use (review, summary, or any mode from the settings).",
	"modes":          "Instructions of each mode.",
	"max-doc-chars":  "Character limit of each document in the prompt.",
	"no-limit":       "Turn off the character limit of each document.",
	"raw":            "Render output as raw text when connected to a TTY.",
	"quiet":          "Quiet mode (hide the spinner and the key notice).",
	"copy":           "Copy the response to the clipboard.",
	"verbose":        "Log every failed attempt.",
	"word-wrap":      "Wrap formatted output at specific width.",
	"help":           "Show help and exit.",
	"version":        "Show version and exit.",
	"max-tokens":     "Maximum number of tokens in response. Zero uses the API default.",
	"temp":           "Temperature (randomness) of results, from 0.0 to 2.0. Negative uses the API default.",
	"topp":           "TopP, an alternative to temperature that narrows response, from 0.0 to 1.0. Negative uses the API default.",
	"topk":           "TopK, only sample from the top K options for each subsequent token. Negative uses the API default.",
	"delay":          "Pause between two API keys.",
	"shuffle":        "Try the API keys in random order.",
	"fanciness":      "Your desired level of fanciness.",
	"status-text":    "Text to show while generating.",
	"settings":       "Open settings in your $EDITOR.",
	"reset-settings": "Backup your old settings file and reset everything to the defaults.",
	"dirs":           "Print the directories in which dossier store its data.",
	"list-models":    "List the models your API keys can use and exit.",
}

// Model represents the LLM model used in the API call.
type Model struct {
	Name     string
	API      string
	Aliases  []string `yaml:"aliases"`
	Fallback string   `yaml:"fallback"`
}

// API represents an API endpoint, its key pool and its models.
type API struct {
	Name      string
	APIKeys   []string         `yaml:"api-keys"`
	APIKeyEnv string           `yaml:"api-key-env"`
	BaseURL   string           `yaml:"base-url"`
	Models    map[string]Model `yaml:"models"`
}

// APIs is a type alias to allow custom YAML decoding.
type APIs []API

// UnmarshalYAML implements sorted API YAML decoding.
func (apis *APIs) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i < len(node.Content); i += 2 {
		var api API
		if err := node.Content[i+1].Decode(&api); err != nil {
			return fmt.Errorf("error decoding YAML file: %s", err)
		}
		api.Name = node.Content[i].Value
		*apis = append(*apis, api)
	}
	return nil
}

// Config holds the main configuration and is mapped to the YAML settings file.
type Config struct {
	API         string            `yaml:"default-api" env:"API"`
	Model       string            `yaml:"default-model" env:"MODEL"`
	Mode        string            `yaml:"mode" env:"MODE"`
	Modes       map[string]string `yaml:"modes"`
	Raw         bool              `yaml:"raw" env:"RAW"`
	Quiet       bool              `yaml:"quiet" env:"QUIET"`
	WordWrap    int               `yaml:"word-wrap" env:"WORD_WRAP"`
	MaxDocChars int               `yaml:"max-doc-chars" env:"MAX_DOC_CHARS"`
	NoLimit     bool              `yaml:"no-limit" env:"NO_LIMIT"`
	MaxTokens   int64             `yaml:"max-tokens" env:"MAX_TOKENS"`
	Temperature float64           `yaml:"temp" env:"TEMP"`
	TopP        float64           `yaml:"topp" env:"TOPP"`
	TopK        int64             `yaml:"topk" env:"TOPK"`
	Delay       time.Duration     `yaml:"delay" env:"DELAY"`
	Shuffle     bool              `yaml:"shuffle" env:"SHUFFLE"`
	Fanciness   uint              `yaml:"fanciness" env:"FANCINESS"`
	StatusText  string            `yaml:"status-text" env:"STATUS_TEXT"`
	HTTPProxy   string            `yaml:"http-proxy" env:"HTTP_PROXY"`
	APIs        APIs              `yaml:"apis"`

	APIKey        string `yaml:"-" env:"API_KEY"`
	APIPinned     bool   `yaml:"-"`
	Models        []string
	Docs          []string
	Prefix        string
	AskKey        bool
	ListModels    bool
	Copy          bool
	Verbose       bool
	Settings      bool
	ResetSettings bool
	Dirs          bool
	SettingsPath  string
}

func defaultConfig() Config {
	return Config{
		API:         "google",
		Model:       "gemini-2.5-flash",
		Mode:        prompt.ModeReview,
		Modes:       prompt.DefaultModes(),
		WordWrap:    80,
		MaxDocChars: document.DefaultMaxChars,
		Temperature: -1,
		TopP:        -1,
		TopK:        -1,
		Delay:       dispatch.DefaultDelay,
		Shuffle:     true,
		Fanciness:   10,
		StatusText:  "Reviewing",
	}
}

func ensureConfig() (Config, error) {
	sp, err := xdg.ConfigFile(filepath.Join("dossier", "dossier.yml"))
	if err != nil {
		return defaultConfig(), dossierError{err, "Could not find settings path."}
	}
	return loadConfig(sp)
}

// loadConfig reads the settings file at path, writing the defaults first if
// it does not exist, and applies the environment on top of it.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	c.SettingsPath = path

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:mnd
		return c, dossierError{err, "Could not create settings directory."}
	}
	if err := writeConfigFile(path); err != nil {
		return c, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return c, dossierError{err, "Could not read settings file."}
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, dossierError{err, "Could not parse settings file."}
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: "DOSSIER_"}); err != nil {
		return c, dossierError{err, "Could not parse environment into settings file."}
	}
	return c, nil
}

func writeConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return dossierError{err, "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return dossierError{err, "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct {
		Config Config
		Help   map[string]string
	}{
		Config: defaultConfig(),
		Help:   help,
	}
	if err := tmpl.Execute(f, m); err != nil {
		return dossierError{err, "Could not render template."}
	}
	return nil
}

// findAPI returns the API to use. An API picked with --api always wins.
// Otherwise the API that declares the requested model is used, preferring
// default-api when several do, and default-api serves unknown models.
func (c Config) findAPI() (API, error) {
	model := c.requestedModel()
	if c.API != "" {
		api, err := c.namedAPI()
		if err != nil || c.APIPinned {
			return api, err
		}
		if _, ok := api.findModel(model); ok {
			return api, nil
		}
	}
	for _, api := range c.APIs {
		if _, ok := api.findModel(model); ok {
			return api, nil
		}
	}
	if c.API != "" {
		return c.namedAPI()
	}
	return API{}, dossierError{
		fmt.Errorf("model %q not found", model),
		fmt.Sprintf(
			"The model %s is not in the settings file. Pick an API with %s.",
			stderrStyles().InlineCode.Render(model),
			stderrStyles().InlineCode.Render("--api"),
		),
	}
}

func (c Config) namedAPI() (API, error) {
	for _, api := range c.APIs {
		if api.Name == c.API {
			return api, nil
		}
	}
	return API{}, dossierError{
		fmt.Errorf("api %q not found", c.API),
		fmt.Sprintf("The API %s is not in the settings file.", stderrStyles().InlineCode.Render(c.API)),
	}
}

// requestedModel is the first --models entry, or the default model.
func (c Config) requestedModel() string {
	for _, name := range c.Models {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return c.Model
}

// findModel looks a model up by name or alias.
func (a API) findModel(name string) (Model, bool) {
	if m, ok := a.Models[name]; ok {
		m.Name = name
		m.API = a.Name
		return m, true
	}
	for k, m := range a.Models {
		if slices.Contains(m.Aliases, name) {
			m.Name = k
			m.API = a.Name
			return m, true
		}
	}
	return Model{}, false
}

// candidates returns the models to try, most preferred first: the explicit
// list when given, otherwise the default model followed by its fallbacks.
// Unknown names are passed through as they are.
func (c Config) candidates(api API) []string {
	if len(c.Models) > 0 {
		var result []string
		for _, name := range c.Models {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if m, ok := api.findModel(name); ok {
				name = m.Name
			}
			if !slices.Contains(result, name) {
				result = append(result, name)
			}
		}
		return result
	}

	if c.Model == "" {
		return nil
	}
	m, ok := api.findModel(c.Model)
	if !ok {
		return []string{c.Model}
	}
	result := []string{m.Name}
	for m.Fallback != "" {
		next, ok := api.findModel(m.Fallback)
		if !ok {
			next = Model{Name: m.Fallback}
		}
		if slices.Contains(result, next.Name) {
			break
		}
		result = append(result, next.Name)
		m = next
	}
	return result
}

// keyEnvs returns the environment variables the API reads keys from.
func (a API) keyEnvs() []string {
	var result []string
	for _, name := range strings.Split(a.APIKeyEnv, ",") {
		if name = strings.TrimSpace(name); name != "" {
			result = append(result, name)
		}
	}
	return result
}

// pool returns the API keys to try. --api-key replaces the configured pool.
// Environment variables may hold several comma separated keys.
func (c Config) pool(api API) []string {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return []string{key}
	}
	var result []string
	add := func(keys ...string) {
		for _, key := range keys {
			key = strings.TrimSpace(key)
			if key != "" && !slices.Contains(result, key) {
				result = append(result, key)
			}
		}
	}
	add(api.APIKeys...)
	for _, name := range api.keyEnvs() {
		add(strings.Split(os.Getenv(name), ",")...)
	}
	return result
}

// instructions returns the template of the selected mode.
func (c Config) instructions() (string, error) {
	if text, ok := c.Modes[c.Mode]; ok {
		return text, nil
	}
	return "", dossierError{
		fmt.Errorf("mode %q not found", c.Mode),
		fmt.Sprintf(
			"Unknown mode %s. Available modes are %s.",
			stderrStyles().InlineCode.Render(c.Mode),
			modeList(c.Modes),
		),
	}
}

// maxDocChars is the per-document budget, zero meaning no limit.
func (c Config) maxDocChars() int {
	if c.NoLimit {
		return 0
	}
	return c.MaxDocChars
}

// sampling returns the request parameters, nil meaning the API default.
func (c Config) sampling() (temp, topP *float64, topK, maxTokens *int64) {
	if c.Temperature >= 0 {
		v := ordered.Clamp(c.Temperature, 0.0, 2.0)
		temp = &v
	}
	if c.TopP >= 0 {
		v := ordered.Clamp(c.TopP, 0.0, 1.0)
		topP = &v
	}
	if c.TopK >= 0 {
		v := c.TopK
		topK = &v
	}
	if c.MaxTokens > 0 {
		v := c.MaxTokens
		maxTokens = &v
	}
	return temp, topP, topK, maxTokens
}

func useLine() string {
	appName := filepath.Base(os.Args[0])

	if stdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = makeGradientText(stdoutStyles().AppName, appName)
	}

	return fmt.Sprintf(
		"%s %s",
		appName,
		stdoutStyles().CliArgs.Render("[OPTIONS] [PREFIX TERM]"),
	)
}

func usageFunc(cmd *cobra.Command) error {
	fmt.Printf("Review documents with a large language model, whatever key still works.\n\n")
	fmt.Printf(
		"Usage:\n  %s\n\n",
		useLine(),
	)
	fmt.Println("Options:")
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Printf(
				"  %-44s %s\n",
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		} else {
			fmt.Printf(
				"  %s%s %-40s %s\n",
				stdoutStyles().Flag.Render("-"+f.Shorthand),
				stdoutStyles().FlagComma,
				stdoutStyles().Flag.Render("--"+f.Name),
				stdoutStyles().FlagDesc.Render(f.Usage),
			)
		}
	})
	if cmd.HasExample() {
		fmt.Printf(
			"\nExample:\n  %s\n  %s\n",
			stdoutStyles().Comment.Render("# "+cmd.Annotations["example-desc"]),
			cheapHighlighting(stdoutStyles(), cmd.Example),
		)
	}

	return nil
}

func modeList(modes map[string]string) string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, stderrStyles().InlineCode.Render(name))
	}
	slices.Sort(names)
	return xstrings.EnglishJoin(names, true)
}
