package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
)

var usersFormat string

func init() {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the records in the store",
		Args:  cobra.NoArgs,
		RunE:  runUsers,
	}
	cmd.Flags().StringVarP(&usersFormat, "format", "f", "text", "Output format: text or json")
	RootCmd.AddCommand(cmd)
}

func runUsers(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	users, err := a.repo.GetUsers(ctx, nil)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return printUsers(cmd.OutOrStdout(), users, usersFormat)
}

func printUsers(w io.Writer, users []model.User, format string) error {
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })

	switch strings.ToLower(format) {
	case "json":
		records := make([]map[string]any, 0, len(users))
		for _, u := range users {
			records = append(records, u.Fields())
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "text", "":
		if len(users) == 0 {
			_, err := fmt.Fprintln(w, "No users found.")
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "EMAIL\tNAME\tAGE\tROLE")
		for _, u := range users {
			age := "-"
			if u.Age != nil {
				age = strconv.Itoa(*u.Age)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Email, orDash(u.Name), age, orDash(u.Role))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
