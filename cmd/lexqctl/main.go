// lexqctl is the command-line client for a running lexq server. Text in,
// JSON out; every command maps to one API call.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/lexq/dbopen"
	"github.com/hazyhaar/lexq/vtq"

	_ "modernc.org/sqlite"
)

var serverFlag string

var rootCmd = &cobra.Command{
	Use:   "lexqctl",
	Short: "Client for the lexq paragraph and dictionary service",
	Long:  "lexqctl talks to a running lexq server: fetch and import paragraphs, search the corpus, and read the top-word dictionary.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Server base URL (default: $LEXQ_SERVER or http://localhost:8090)")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one generated paragraph into the corpus",
		Run: func(cmd *cobra.Command, _ []string) {
			call(http.MethodPost, "/api/v1/paragraphs/fetch", nil)
		},
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a web page's paragraphs into the corpus",
		Run: func(cmd *cobra.Command, _ []string) {
			pageURL, _ := cmd.Flags().GetString("url")
			htmlFile, _ := cmd.Flags().GetString("html-file")
			body := map[string]string{}
			switch {
			case pageURL != "":
				body["url"] = pageURL
			case htmlFile != "":
				data, err := os.ReadFile(htmlFile)
				if err != nil {
					exitErr("read html file", err)
				}
				body["html"] = string(data)
			default:
				exitErr("import", fmt.Errorf("--url or --html-file is required"))
			}
			call(http.MethodPost, "/api/v1/paragraphs/import", body)
		},
	}
	importCmd.Flags().StringP("url", "u", "", "Page URL to import")
	importCmd.Flags().String("html-file", "", "Local HTML file to import")

	searchCmd := &cobra.Command{
		Use:   "search [words...]",
		Short: "Search paragraphs by whole word",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			operator, _ := cmd.Flags().GetString("operator")
			call(http.MethodPost, "/api/v1/paragraphs/search", map[string]any{
				"words":    args,
				"operator": operator,
			})
		},
	}
	searchCmd.Flags().StringP("operator", "o", "or", "Word combinator: and or or")

	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one stored paragraph",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				exitErr("get", fmt.Errorf("id must be an integer: %q", args[0]))
			}
			call(http.MethodGet, "/api/v1/paragraphs/"+args[0], nil)
		},
	}

	topCmd := &cobra.Command{
		Use:   "top",
		Short: "Show definitions of the most frequent corpus words",
		Run: func(cmd *cobra.Command, _ []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			call(http.MethodGet, "/api/v1/dictionary?limit="+url.QueryEscape(strconv.Itoa(limit)), nil)
		},
	}
	topCmd.Flags().IntP("limit", "l", 10, "Number of top words")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the dictionary cache now",
		Run: func(cmd *cobra.Command, _ []string) {
			call(http.MethodPost, "/api/v1/dictionary/refresh", nil)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent fetch and import attempts",
		Run: func(cmd *cobra.Command, _ []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			call(http.MethodGet, "/api/v1/paragraphs/history?limit="+strconv.Itoa(limit), nil)
		},
	}
	historyCmd.Flags().IntP("limit", "l", 50, "Max entries")

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show the server health snapshot",
		Run: func(cmd *cobra.Command, _ []string) {
			call(http.MethodGet, "/healthz", nil)
		},
	}

	// queue works directly on the database file, for operators on the host.
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the pending refresh queue depth (direct DB access)",
		Run: func(cmd *cobra.Command, _ []string) {
			dbPath, _ := cmd.Flags().GetString("db")
			queueName, _ := cmd.Flags().GetString("queue")
			db, err := dbopen.Open(dbPath)
			if err != nil {
				exitErr("open db", err)
			}
			defer db.Close()
			q := vtq.New(db, vtq.Options{Queue: queueName})
			n, err := q.Len(cmd.Context())
			if err != nil {
				exitErr("queue length", err)
			}
			out, _ := json.Marshal(map[string]any{"queue": queueName, "pending": n})
			fmt.Println(string(out))
		},
	}
	queueCmd.Flags().String("db", "data/lexq.db", "Database path")
	queueCmd.Flags().String("queue", "dictionary_refresh", "Queue name")

	rootCmd.AddCommand(fetchCmd, importCmd, searchCmd, getCmd, topCmd, refreshCmd, historyCmd, healthCmd, queueCmd)
}

func serverURL() string {
	if serverFlag != "" {
		return strings.TrimRight(serverFlag, "/")
	}
	if env := os.Getenv("LEXQ_SERVER"); env != "" {
		return strings.TrimRight(env, "/")
	}
	return "http://localhost:8090"
}

// call performs one API request and prints the indented JSON response. A
// non-2xx response prints the server's error body and exits nonzero.
func call(method, path string, body any) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			exitErr("encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL()+path, reader)
	if err != nil {
		exitErr("build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		exitErr("request", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		exitErr("read response", err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		data = pretty.Bytes()
	}

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n%s\n", method, path, resp.Status, data)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
