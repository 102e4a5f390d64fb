package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/dossier/internal/dispatch"
	"github.com/charmbracelet/dossier/internal/document"
	"github.com/charmbracelet/dossier/internal/prompt"
	"github.com/charmbracelet/dossier/internal/proto"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/joho/godotenv"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// Build vars.
var (
	//nolint: gochecknoglobals
	Version   = ""
	CommitSHA = ""
)

func buildVersion() {
	if len(CommitSHA) >= sha1short {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[:sha1short] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}

const sha1short = 7

var (
	config = defaultConfig()
	logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "dossier",
		Level:  log.WarnLevel,
	})

	rootCmd = &cobra.Command{
		Use:           "dossier",
		Short:         "Review documents with a large language model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       exampleCommand,
		Annotations:   map[string]string{"example-desc": exampleDesc},
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Prefix = strings.Join(args, " ")
			config.APIPinned = cmd.Flags().Changed("api")
			return run(cmd.Context())
		},
	}

	manCmd = &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				//nolint:wrapcheck
				return err
			}
			_, err = fmt.Fprint(os.Stdout, manPage.Build(roff.NewDocument()))
			//nolint:wrapcheck
			return err
		},
	}
)

var exampleDesc, exampleCommand = randomExample()

func initFlags() {
	flags := rootCmd.Flags()
	flags.StringVarP(&config.Model, "model", "m", config.Model, help["model"])
	flags.StringSliceVarP(&config.Models, "models", "M", config.Models, help["models"])
	flags.StringVarP(&config.API, "api", "a", config.API, help["api"])
	flags.StringVarP(&config.APIKey, "api-key", "k", config.APIKey, help["api-key"])
	flags.BoolVar(&config.AskKey, "ask-key", config.AskKey, help["ask-key"])
	flags.StringArrayVarP(&config.Docs, "doc", "d", config.Docs, help["doc"])
	flags.StringVarP(&config.Mode, "mode", "o", config.Mode, help["mode"])
	flags.StringVarP(&config.HTTPProxy, "http-proxy", "x", config.HTTPProxy, help["http-proxy"])
	flags.BoolVarP(&config.Raw, "raw", "r", config.Raw, help["raw"])
	flags.BoolVarP(&config.Quiet, "quiet", "q", config.Quiet, help["quiet"])
	flags.BoolVarP(&config.Copy, "copy", "c", config.Copy, help["copy"])
	flags.BoolVar(&config.Verbose, "verbose", config.Verbose, help["verbose"])
	flags.IntVar(&config.WordWrap, "word-wrap", config.WordWrap, help["word-wrap"])
	flags.IntVar(&config.MaxDocChars, "max-doc-chars", config.MaxDocChars, help["max-doc-chars"])
	flags.BoolVar(&config.NoLimit, "no-limit", config.NoLimit, help["no-limit"])
	flags.Int64Var(&config.MaxTokens, "max-tokens", config.MaxTokens, help["max-tokens"])
	flags.Float64Var(&config.Temperature, "temp", config.Temperature, help["temp"])
	flags.Float64Var(&config.TopP, "topp", config.TopP, help["topp"])
	flags.Int64Var(&config.TopK, "topk", config.TopK, help["topk"])
	flags.Var(newDurationFlag(config.Delay, &config.Delay), "delay", help["delay"])
	flags.BoolVar(&config.Shuffle, "shuffle", config.Shuffle, help["shuffle"])
	flags.UintVar(&config.Fanciness, "fanciness", config.Fanciness, help["fanciness"])
	flags.StringVar(&config.StatusText, "status-text", config.StatusText, help["status-text"])
	flags.BoolVar(&config.ListModels, "list-models", config.ListModels, help["list-models"])
	flags.BoolVar(&config.Settings, "settings", false, help["settings"])
	flags.BoolVar(&config.ResetSettings, "reset-settings", config.ResetSettings, help["reset-settings"])
	flags.BoolVar(&config.Dirs, "dirs", false, help["dirs"])
	flags.BoolP("version", "v", false, help["version"])
	flags.BoolP("help", "h", false, help["help"])
	flags.Lookup("fanciness").Hidden = true
	flags.Lookup("status-text").Hidden = true
	flags.SortFlags = false

	rootCmd.MarkFlagsMutuallyExclusive(
		"settings",
		"reset-settings",
		"dirs",
		"list-models",
	)
	rootCmd.MarkFlagsMutuallyExclusive("api-key", "ask-key")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})
	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.AddCommand(manCmd)
}

func main() {
	if err := loadDotEnv(".env"); err != nil {
		handleError(dossierError{err, "Could not read the .env file."})
		os.Exit(1)
	}

	var err error
	config, err = ensureConfig()
	if err != nil && !isCompletionCmd(os.Args) && !isManCmd(os.Args) {
		handleError(err)
		os.Exit(1)
	}

	// XXX: this must come after loading the config.
	initFlags()
	buildVersion()

	if err := rootCmd.Execute(); err != nil {
		handleError(err)
		os.Exit(1)
	}
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	//nolint:wrapcheck
	return err
}

func run(ctx context.Context) error {
	if config.Verbose {
		logger.SetLevel(log.DebugLevel)
	}

	switch {
	case config.Dirs:
		printDirs()
		return nil
	case config.Settings:
		return editSettings()
	case config.ResetSettings:
		return resetSettings()
	case config.ListModels:
		return listModels(ctx)
	}

	api, err := config.findAPI()
	if err != nil {
		return err
	}

	pool, err := keyPool(api)
	if err != nil {
		return err
	}

	instructions, err := config.instructions()
	if err != nil {
		return err
	}

	client, err := newHTTPClient(config.HTTPProxy)
	if err != nil {
		return err
	}

	docs, err := loadDocuments(ctx, client)
	if err != nil {
		return err
	}

	temp, topP, topK, maxTokens := config.sampling()
	j := job{
		caller: callerFor(api, client),
		pool:   pool,
		models: config.candidates(api),
		request: proto.Request{
			Prompt:      prompt.Build(instructions, config.Prefix, docs, config.maxDocChars()),
			Temperature: temp,
			TopP:        topP,
			TopK:        topK,
			MaxTokens:   maxTokens,
			Safety:      proto.DefaultSafety(),
		},
		opts: []dispatch.Option{
			dispatch.WithDelay(config.Delay),
			dispatch.WithShuffle(config.Shuffle),
		},
	}
	logger.Debug(
		"dispatching",
		"api", api.Name,
		"keys", len(j.pool),
		"models", strings.Join(j.models, ","),
		"documents", len(docs),
		"chars", len(j.request.Prompt),
	)

	out, err := startDispatch(ctx, j)
	if err != nil {
		return dispatchError(err, api)
	}
	return printOutcome(out)
}

// loadDocuments reads every --doc plus standard input when something was
// piped in.
func loadDocuments(ctx context.Context, client *http.Client) ([]document.Document, error) {
	var srcs []document.Source
	var readsStdin bool
	for _, doc := range config.Docs {
		src, err := document.ParseSource(doc)
		if err != nil {
			return nil, dossierError{err, fmt.Sprintf("Invalid document %q.", doc)}
		}
		readsStdin = readsStdin || src.Location == document.Stdin
		srcs = append(srcs, src)
	}

	loader := document.Loader{HTTPClient: client}
	if !isInputTTY() {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, dossierError{err, "Unable to read stdin."}
		}
		loader.Stdin = bytes.NewReader(data)
		if !readsStdin && len(bytes.TrimSpace(data)) > 0 {
			srcs = append(srcs, document.Source{Label: "stdin", Location: document.Stdin})
		}
	}

	if len(srcs) == 0 && config.Prefix == "" {
		return nil, dossierError{
			errors.New("no input"),
			fmt.Sprintf(
				"Nothing to review. Pass documents with %s or pipe one in.",
				stderrStyles().InlineCode.Render("--doc"),
			),
		}
	}

	docs, err := loader.LoadAll(ctx, srcs)
	if err != nil {
		return nil, dossierError{err, "Could not load the documents."}
	}
	return docs, nil
}

func newHTTPClient(proxy string) (*http.Client, error) {
	if proxy == "" {
		return &http.Client{}, nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return nil, dossierError{err, "There was an error parsing your proxy URL."}
	}
	return &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(u)}}, nil
}

func askKey(api API) (string, error) {
	if !isInputTTY() {
		return "", dossierError{
			errors.New("stdin is not a terminal"),
			fmt.Sprintf(
				"Cannot prompt for a key while reading stdin. Pass it with %s.",
				stderrStyles().InlineCode.Render("--api-key"),
			),
		}
	}
	var key string
	err := huh.NewInput().
		Title(fmt.Sprintf("Enter your %s API key", api.Name)).
		Description("It is only used for this run.").
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("the key cannot be empty")
			}
			return nil
		}).
		Value(&key).
		Run()
	if err != nil {
		return "", dossierError{err, "Could not read the API key."}
	}
	return strings.TrimSpace(key), nil
}

func printOutcome(out dispatch.Outcome) error {
	if config.Copy {
		if err := clipboard.WriteAll(out.Text); err != nil {
			return dossierError{err, "Could not copy the response to the clipboard."}
		}
	}

	text := out.Text
	if isOutputTTY() && !config.Raw {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(config.WordWrap),
		)
		if err != nil {
			return dossierError{err, "Could not initialize the markdown renderer."}
		}
		if text, err = r.Render(text); err != nil {
			return dossierError{err, "Could not render the response."}
		}
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Print(text)

	if !config.Quiet {
		fmt.Fprintln(os.Stderr, notice(stderrStyles(), out, config.Copy))
	}
	return nil
}

func printDirs() {
	fmt.Printf("Configuration: %s\n", filepath.Dir(config.SettingsPath))
}

func editSettings() error {
	c, err := editor.Cmd("dossier", config.SettingsPath)
	if err != nil {
		return dossierError{err, "Could not edit your settings file."}
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return dossierError{err, fmt.Sprintf(
			"Missing %s.",
			stderrStyles().InlineCode.Render("$EDITOR"),
		)}
	}
	if !config.Quiet {
		fmt.Fprintln(os.Stderr, "Wrote config file to:", config.SettingsPath)
	}
	return nil
}

func resetSettings() error {
	if isInputTTY() && isErrTTY() {
		reset := false
		err := huh.NewConfirm().
			Title("Reset your settings to the defaults?").
			Description("The current file is kept with a .bak extension.").
			Affirmative("Reset").
			Negative("Keep").
			Value(&reset).
			Run()
		if err != nil {
			return dossierError{err, "Could not read your answer."}
		}
		if !reset {
			return nil
		}
	}

	if err := backupSettings(config.SettingsPath); err != nil {
		return err
	}
	if err := writeConfigFile(config.SettingsPath); err != nil {
		return err
	}
	if !config.Quiet {
		fmt.Fprintln(os.Stderr, "Settings restored to defaults!")
		fmt.Fprintf(os.Stderr,
			"\n  %s %s\n\n",
			stderrStyles().Comment.Render("Your old settings have been saved to:"),
			stderrStyles().Link.Render(config.SettingsPath+".bak"),
		)
	}
	return nil
}

// backupSettings moves the settings file at path to path.bak.
func backupSettings(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return dossierError{err, "Couldn't read config file."}
	}
	if err := os.WriteFile(path+".bak", content, 0o600); err != nil { //nolint:mnd
		return dossierError{err, "Couldn't write the backup file."}
	}
	if err := os.Remove(path); err != nil {
		return dossierError{err, "Couldn't remove the config file."}
	}
	return nil
}

// keyPool returns the keys of the API, asking for one when --ask-key is set
// and none is configured.
func keyPool(api API) ([]string, error) {
	pool := config.pool(api)
	if len(pool) == 0 && config.AskKey {
		key, err := askKey(api)
		if err != nil {
			return nil, err
		}
		pool = []string{key}
	}
	if len(pool) == 0 {
		return nil, dispatchError(dispatch.ErrNoCredentials, api)
	}
	return pool, nil
}

func listModels(ctx context.Context) error {
	api, err := config.findAPI()
	if err != nil {
		return err
	}
	client, err := newHTTPClient(config.HTTPProxy)
	if err != nil {
		return err
	}
	lister, ok := callerFor(api, client).(modelLister)
	if !ok {
		return dossierError{
			fmt.Errorf("cannot list models of %s", api.Name),
			fmt.Sprintf("Listing models is not supported for the %s API.", api.Name),
		}
	}

	pool, err := keyPool(api)
	if err != nil {
		return err
	}

	key, models, err := listWithKeys(ctx, lister, api, pool, os.Stderr)
	if err != nil || len(models) == 0 {
		return err
	}
	return printMarkdown(fmt.Sprintf(
		"### Models available for `%s` with key #%d\n\n%s",
		proto.MethodGenerateContent,
		key,
		models,
	))
}

// listWithKeys tries each key in turn and returns the 1-based index of the
// first one that sees generative models, along with them. Keys that see none
// get a warning on w. It fails only when every key fails.
func listWithKeys(ctx context.Context, lister modelLister, api API, pool []string, w io.Writer) (int, proto.Models, error) {
	var errs []error
	for i, key := range pool {
		models, err := lister.ListModels(ctx, key)
		if err != nil {
			logger.Debug("could not list models", "key", i+1, "err", err)
			errs = append(errs, err)
			continue
		}
		generative := models.Generative()
		if len(generative) == 0 {
			fmt.Fprintln(w, stderrStyles().Warning.Render(
				fmt.Sprintf("No models found with key #%d. Your API key might be invalid or restricted.", i+1),
			))
			continue
		}
		return i + 1, generative, nil
	}
	if len(errs) == len(pool) {
		return 0, nil, dossierError{errors.Join(errs...), fmt.Sprintf(
			"Could not list the %s models with any of your API keys.",
			api.Name,
		)}
	}
	return 0, nil, nil
}

func printMarkdown(md string) error {
	if !isOutputTTY() || config.Raw {
		fmt.Print(md)
		return nil
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		return dossierError{err, "Could not render the model list."}
	}
	fmt.Print(out)
	return nil
}

func handleError(err error) {
	format := "\n%s\n\n"

	var args []any
	var ferr flagParseError
	var derr dossierError
	if errors.As(err, &ferr) {
		format += "%s\n\n"
		args = []any{
			fmt.Sprintf(
				"Check out %s %s",
				stderrStyles().InlineCode.Render("dossier -h"),
				stderrStyles().Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				stderrStyles().InlineCode.Render(ferr.Flag()),
			),
		}
	} else if errors.As(err, &derr) {
		format += "%s\n\n"
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorHeader.String(), derr.reason),
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(err.Error())),
		}
	} else {
		args = []any{
			stderrStyles().ErrPadding.Render(stderrStyles().ErrorDetails.Render(err.Error())),
		}
	}

	fmt.Fprintf(os.Stderr, format, args...)
}

func isManCmd(args []string) bool {
	if len(args) == 2 {
		return args[1] == "man"
	}
	if len(args) == 3 && args[1] == "man" {
		return args[2] == "-h" || args[2] == "--help"
	}
	return false
}

func isCompletionCmd(args []string) bool {
	if len(args) <= 1 {
		return false
	}
	if args[1] == "__complete" {
		return true
	}
	if args[1] != "completion" {
		return false
	}
	if len(args) == 3 {
		_, ok := map[string]any{
			"bash":       nil,
			"fish":       nil,
			"zsh":        nil,
			"powershell": nil,
			"-h":         nil,
			"--help":     nil,
			"help":       nil,
		}[args[2]]
		return ok
	}
	if len(args) == 4 {
		_, ok := map[string]any{
			"-h":     nil,
			"--help": nil,
		}[args[3]]
		return ok
	}
	return false
}
