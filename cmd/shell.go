package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/internal/app"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/source"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive search; each line is a query, :help lists commands",
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

const shellHelp = `Type a query to search. An empty line clears the results.
  :page N        show page N of the current query
  :sources       list retailers and their state
  :toggle ID     turn a retailer on or off
  :like N        add or remove result N from the wishlist
  :quit          leave the shell`

func runShell(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	a.Pipeline.OnChange(func(st search.State) {
		mu.Lock()
		defer mu.Unlock()
		renderState(out, st)
	})

	fmt.Fprintln(out, shellHelp)
	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if !strings.HasPrefix(line, ":") {
			a.Pipeline.Submit(line, 0)
			continue
		}
		quit, err := shellCommand(cmd, a, line)
		if err != nil {
			mu.Lock()
			fmt.Fprintln(out, "error:", err)
			mu.Unlock()
		}
		if quit {
			break
		}
	}
	return in.Err()
}

func shellCommand(cmd *cobra.Command, a *app.App, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	out := cmd.OutOrStdout()

	switch name {
	case "q", "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprintln(out, shellHelp)
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return false, fmt.Errorf("page must be a number from 1")
		}
		st := a.Pipeline.State()
		if st.Query == "" {
			return false, fmt.Errorf("no query to page through")
		}
		a.Pipeline.Submit(st.Query, n-1)
	case "sources":
		printSources(out, a.Filter)
	case "toggle":
		on, err := a.Pipeline.ToggleSource(source.ID(strings.ToLower(arg)))
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "%s %s\n", arg, map[bool]string{true: "on", false: "off"}[on])
	case "like":
		n, err := strconv.Atoi(arg)
		items := a.Pipeline.State().Items
		if err != nil || n < 1 || n > len(items) {
			return false, fmt.Errorf("no result %q on this page", arg)
		}
		on, err := a.Wishlist.Toggle(cmd.Context(), items[n-1])
		if err != nil {
			return false, err
		}
		verb := "removed from"
		if on {
			verb = "added to"
		}
		fmt.Fprintf(out, "%s %s wishlist\n", items[n-1].ProductName, verb)
	default:
		return false, fmt.Errorf("unknown command %q, try :help", name)
	}
	return false, nil
}

func renderState(w io.Writer, st search.State) {
	if st.Loading {
		return
	}
	switch st.Outcome {
	case search.OutcomeGated:
		fmt.Fprintln(w, "\nSearch limit reached. Log in with 'radar auth login' to keep searching.")
		return
	case search.OutcomeTimeout, search.OutcomeFailed, search.OutcomeRejected:
		fmt.Fprintln(w, "\nSearch failed, showing no results. Try again.")
		return
	}
	if st.Query == "" {
		return
	}
	if len(st.Items) == 0 {
		fmt.Fprintf(w, "\nNo results for \"%s\".\n", st.Query)
		return
	}
	fmt.Fprintf(w, "\n%d results for \"%s\"\n\n", st.Total, st.Query)
	printProductsTable(w, st.Items, st.Page*cfg.HitsPerPage)
	printPager(w, st.Page, st.Pages)
}
