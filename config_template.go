package main

const configTemplate = `# {{ index .Help "api" }}
default-api: {{ .Config.API }}
# {{ index .Help "model" }}
default-model: {{ .Config.Model }}
# {{ index .Help "mode" }}
mode: {{ .Config.Mode }}
# {{ index .Help "modes" }}
modes:
{{- range $name, $text := .Config.Modes }}
  {{ $name }}: {{ printf "%q" $text }}
{{- end }}
# {{ index .Help "raw" }}
raw: false
# {{ index .Help "quiet" }}
quiet: false
# {{ index .Help "word-wrap" }}
word-wrap: {{ .Config.WordWrap }}
# {{ index .Help "max-doc-chars" }}
max-doc-chars: {{ .Config.MaxDocChars }}
# {{ index .Help "no-limit" }}
no-limit: false
# {{ index .Help "temp" }}
temp: {{ .Config.Temperature }}
# {{ index .Help "topp" }}
topp: {{ .Config.TopP }}
# {{ index .Help "topk" }}
topk: {{ .Config.TopK }}
# {{ index .Help "max-tokens" }}
# max-tokens: 8192
# {{ index .Help "delay" }}
delay: {{ .Config.Delay }}
# {{ index .Help "shuffle" }}
shuffle: {{ .Config.Shuffle }}
# {{ index .Help "fanciness" }}
fanciness: {{ .Config.Fanciness }}
# {{ index .Help "status-text" }}
status-text: {{ .Config.StatusText }}
# {{ index .Help "http-proxy" }}
# http-proxy: http://localhost:3128
# {{ index .Help "apis" }}
apis:
  google:
    # Keys listed here are tried along with the ones in api-key-env.
    api-keys: []
    # Several variables may be given, and each may hold comma separated keys.
    api-key-env: GOOGLE_API_KEY,GEMINI_API_KEY
    models:
      gemini-2.5-pro:
        aliases: ["pro"]
        fallback: gemini-2.5-flash
      gemini-2.5-flash:
        aliases: ["flash"]
        fallback: gemini-2.0-flash
      gemini-2.0-flash:
        aliases: ["2.0"]
        fallback: gemini-2.0-flash-lite
      gemini-2.0-flash-lite:
        aliases: ["lite"]
        fallback:
  openai:
    base-url: https://api.openai.com/v1
    api-key-env: OPENAI_API_KEY
    models:
      gpt-4o:
        aliases: ["4o"]
        fallback: gpt-4o-mini
      gpt-4o-mini:
        aliases: ["4o-mini"]
        fallback:
  anthropic:
    base-url: https://api.anthropic.com/v1
    api-key-env: ANTHROPIC_API_KEY
    models:
      claude-sonnet-4-0:
        aliases: ["sonnet"]
        fallback: claude-3-5-haiku-latest
      claude-3-5-haiku-latest:
        aliases: ["haiku"]
        fallback:
`
