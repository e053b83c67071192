package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/getmockd/restmock/internal/matching"
	"github.com/getmockd/restmock/pkg/cli/internal/output"
	"github.com/getmockd/restmock/pkg/connection"
	"github.com/getmockd/restmock/pkg/fixture"
	"github.com/getmockd/restmock/pkg/interceptor"
	"github.com/getmockd/restmock/pkg/responder"
	"github.com/getmockd/restmock/pkg/tracker"
	"github.com/getmockd/restmock/pkg/variables"
)

// Chain priorities for the dry run, lower first.
const (
	trackerPriority  = 6
	fixturesPriority = 9
)

type matchFlags struct {
	method  string
	url     string
	params  string
	body    string
	headers []string
	vars    []string
}

type matchResult struct {
	Matched    bool           `json:"matched"`
	RequestID  string         `json:"request_id,omitempty"`
	URL        string         `json:"url"`
	Kind       string         `json:"kind,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	Source     string         `json:"source,omitempty"`
	Body       any            `json:"body,omitempty"`
	Variables  map[string]any `json:"variables,omitempty"`
	Miss       string         `json:"miss,omitempty"`

	NearMisses []matching.NearMiss `json:"near_misses,omitempty"`
}

func newMatchCmd(a *app) *cobra.Command {
	f := &matchFlags{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Dry-run one request through the fixtures",
		Long: `Send one request through the fixtures and print the response that would
be returned, or which lookup missed.

Relative URLs are resolved against --base-url. Variables captured by the
matched candidate are printed after the response.`,
		Example: `  restmock match --fixtures 'fixtures/*.yaml' --base-url http://api.test/v1/ \
      --url users/ --params '{"id": 5}'

  restmock match --url /v1/login/ --method POST --body '{"user": "ada"}' --var tenant=acme`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMatch(cmd, f)
		},
	}

	cmd.Flags().StringSlice("fixtures", nil, "Fixture files or globs (repeatable)")
	cmd.Flags().String("base-url", "", "Base URL of the connection")
	cmd.Flags().String("connection", "", "Connection name")
	cmd.Flags().String("not-found", "", "Policy for unmatched requests: raise or continue")
	cmd.Flags().StringVarP(&f.method, "method", "X", "GET", "Request method")
	cmd.Flags().StringVar(&f.url, "url", "", "Request URL (absolute, /path or fragment)")
	cmd.Flags().StringVar(&f.params, "params", "", "Query parameters as a JSON object")
	cmd.Flags().StringVar(&f.body, "body", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Request header k=v (repeatable)")
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "Variable k=v; v is parsed as JSON when valid (repeatable)")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func (a *app) runMatch(cmd *cobra.Command, f *matchFlags) error {
	if len(a.cfg.Fixtures) == 0 {
		return errors.New("no fixtures given: use --fixtures or set fixtures in the project config")
	}
	fixtures, err := fixture.LoadGlobs(a.cfg.Fixtures...)
	if err != nil {
		return err
	}

	call, err := f.call()
	if err != nil {
		return err
	}

	vars := variables.NewFrom(a.cfg.Variables)
	for _, kv := range f.vars {
		name, value, err := parseVar(kv)
		if err != nil {
			return err
		}
		vars.Set(name, value)
	}

	conn := connection.New(a.cfg.Connection, a.cfg.BaseURL, connection.WithLogger(a.log))
	tr := tracker.New(tracker.WithLogger(a.log))
	r := responder.New(fixtures,
		responder.WithVariables(vars),
		responder.WithNotFound(a.cfg.NotFoundPolicy()),
		responder.WithLogger(a.log),
	)
	if err := conn.PushMiddleware(tr, trackerPriority); err != nil {
		return err
	}
	if err := conn.PushMiddleware(r, fixturesPriority); err != nil {
		return err
	}

	resp, err := conn.Do(cmd.Context(), call)
	result := matchResult{URL: conn.NewRequest(call).URL}
	if q := tr.All(); len(q) > 0 {
		result.RequestID = q[0].ID
		result.URL = q[0].URL
	}

	var nf *responder.NotFoundError
	switch {
	case errors.As(err, &nf):
		result.Miss = nf.URL
		result.NearMisses = nf.NearMisses
	case errors.Is(err, connection.ErrNoTransport):
		result.Miss = result.URL
	case err != nil:
		return err
	default:
		result.Matched = true
		result.Kind = resp.Kind.String()
		result.StatusCode = resp.StatusCode
		result.Source = resp.Source
		result.Body = resp.Body
		if vars.Len() > 0 {
			result.Variables = vars.Snapshot()
		}
	}

	if err := a.printResult(result, func() { a.printMatch(result) }); err != nil {
		return err
	}
	if !result.Matched {
		return fmt.Errorf("no fixture matched %q", result.Miss)
	}
	return nil
}

func (f *matchFlags) call() (connection.Call, error) {
	call := connection.Call{Method: f.method, URL: f.url}

	if f.params != "" {
		var params map[string]any
		if err := json.Unmarshal([]byte(f.params), &params); err != nil {
			return call, fmt.Errorf("--params must be a JSON object: %w", err)
		}
		call.Params = params
	}
	if f.body != "" {
		var body any
		if err := json.Unmarshal([]byte(f.body), &body); err != nil {
			return call, fmt.Errorf("--body must be JSON: %w", err)
		}
		call.JSON = body
	}
	if len(f.headers) > 0 {
		call.Headers = make(map[string]string, len(f.headers))
		for _, h := range f.headers {
			k, v, ok := strings.Cut(h, "=")
			if !ok || k == "" {
				return call, fmt.Errorf("invalid --header %q: expected k=v", h)
			}
			call.Headers[k] = v
		}
	}
	return call, nil
}

// parseVar splits k=v, decoding v as JSON when it is valid JSON.
func parseVar(kv string) (string, any, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid --var %q: expected k=v", kv)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return name, raw, nil
	}
	return name, v, nil
}

func (a *app) printMatch(r matchResult) {
	title := cases.Title(language.English)

	if !r.Matched {
		fmt.Fprintf(a.stdout, "No match: %s\n", r.Miss)
		if len(r.NearMisses) > 0 {
			fmt.Fprintln(a.stdout, "Closest candidates:")
			for _, nm := range r.NearMisses {
				label := fmt.Sprintf("#%d", nm.Candidate)
				if nm.Name != "" {
					label += " " + nm.Name
				}
				fmt.Fprintf(a.stdout, "  %s (%d%%): %s\n", label, nm.MatchPercentage, nm.Reason)
			}
		}
		return
	}

	tw := output.Table(a.stdout)
	fmt.Fprintf(tw, "Request:\t%s\n", r.URL)
	fmt.Fprintf(tw, "Kind:\t%s\n", title.String(r.Kind))
	fmt.Fprintf(tw, "Status:\t%d\n", r.StatusCode)
	if r.Source != "" {
		fmt.Fprintf(tw, "Source:\t%s\n", r.Source)
	}
	_ = tw.Flush()

	if r.Kind == interceptor.KindBody.String() {
		fmt.Fprintln(a.stdout, "Body:")
		_ = output.JSON(a.stdout, r.Body)
	}

	if len(r.Variables) > 0 {
		fmt.Fprintln(a.stdout, "Variables:")
		names := make([]string, 0, len(r.Variables))
		for name := range r.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			data, _ := json.Marshal(r.Variables[name])
			fmt.Fprintf(a.stdout, "  %s = %s\n", name, data)
		}
	}
}
