package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-finance-client/client"
	"github.com/jrsteele09/go-finance-client/finance"
	"github.com/jrsteele09/go-finance-client/ideas"
	"github.com/jrsteele09/go-finance-client/internal/utils"
	"github.com/jrsteele09/go-finance-client/money"
)

type command struct {
	usage string
	run   func(ctx context.Context, api *client.Client, args []string, out io.Writer) error
}

var commands = map[string]command{
	"login":        {"login -email E -password P", login},
	"signup":       {"signup -name N -email E -password P", signup},
	"logout":       {"logout", logout},
	"whoami":       {"whoami", whoami},
	"rename":       {"rename -name N", rename},
	"transactions": {"transactions [-search S] [-type income|expense] [-month M -year Y] [-page N]", listTransactions},
	"add":          {"add -description D -amount 1.234,56 -type income|expense [-category ID]", addTransaction},
	"delete":       {"delete -id ID", deleteTransaction},
	"summary":      {"summary", summary},
	"categories":   {"categories", listCategories},
	"category":     {"category -name N [-color C] [-icon I]", addCategory},
	"ideas":        {"ideas", listIdeas},
	"idea":         {"idea -title T [-description D]", addIdea},
	"comment":      {"comment -idea ID -content C", comment},
	"vote":         {"vote -idea ID", vote},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: finclient <command> [flags]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(os.Stderr, "  banner")
}

func dispatch(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	cmd, ok := commands[args[0]]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(ctx, api, args[1:], out)
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func login(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ok, err := api.Auth().Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return reportSignIn(api, ok, out)
}

func signup(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("signup")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ok, err := api.Auth().Signup(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	return reportSignIn(api, ok, out)
}

func reportSignIn(api *client.Client, ok bool, out io.Writer) error {
	if !ok {
		return fmt.Errorf("backend returned no session")
	}
	snap := api.Session().Snapshot()
	_, err := fmt.Fprintf(out, "Signed in as %s <%s>\n", snap.User.Name, snap.User.Email)
	return err
}

func logout(_ context.Context, api *client.Client, _ []string, out io.Writer) error {
	if err := api.Auth().Logout(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "Signed out")
	return err
}

func whoami(_ context.Context, api *client.Client, _ []string, out io.Writer) error {
	snap := api.Session().Snapshot()
	if !snap.IsAuthenticated {
		_, err := fmt.Fprintln(out, "Not signed in")
		return err
	}
	_, err := fmt.Fprintf(out, "%s <%s>\n", snap.User.Name, snap.User.Email)
	return err
}

func rename(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("rename")
	name := fs.String("name", "", "new display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := api.Finance().UpdateProfileName(ctx, *name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Renamed to %s\n", user.Name)
	return err
}

func listTransactions(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("transactions")
	search := fs.String("search", "", "description contains")
	txType := fs.String("type", "", "income or expense")
	month := fs.Int("month", 0, "month 1-12")
	year := fs.Int("year", 0, "year")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filters := finance.TransactionFilters{
		Search: utils.PtrOrNil(*search),
		Type:   utils.PtrOrNil(finance.TransactionType(strings.ToLower(*txType))),
		Month:  utils.PtrOrNil(*month),
		Year:   utils.PtrOrNil(*year),
		Page:   *page,
		Limit:  20,
	}
	result, err := api.Finance().ListTransactionsPaginated(ctx, filters)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tTYPE\tAMOUNT")
	for _, tx := range result.Transactions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date.Format(time.DateOnly), tx.Description, tx.Type, money.FormatBRL(tx.Amount))
	}
	fmt.Fprintf(w, "\npage %d of %d (%d total)\n", result.Pagination.CurrentPage, result.Pagination.TotalPages, result.Pagination.TotalItems)
	return w.Flush()
}

func addTransaction(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("add")
	description := fs.String("description", "", "what it was")
	amount := fs.String("amount", "", "amount, e.g. 1.234,56")
	txType := fs.String("type", string(finance.Expense), "income or expense")
	categoryID := fs.String("category", "", "category id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	value, err := money.ParseAmount(*amount)
	if err != nil {
		return err
	}
	in := finance.CreateTransactionInput{
		Description: *description,
		Amount:      value,
		Type:        finance.TransactionType(strings.ToLower(*txType)),
		CategoryID:  utils.PtrOrNil(*categoryID),
	}
	tx, err := api.Finance().CreateTransaction(ctx, in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Created %s: %s %s\n", tx.ID, tx.Description, money.FormatBRL(tx.Amount))
	return err
}

func deleteTransaction(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("delete")
	id := fs.String("id", "", "transaction id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	deleted, err := api.Finance().DeleteTransaction(ctx, *id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Deleted: %t\n", deleted)
	return err
}

func summary(ctx context.Context, api *client.Client, _ []string, out io.Writer) error {
	s, err := api.Finance().Summary(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Income\t%s\n", money.FormatBRL(s.Income))
	fmt.Fprintf(w, "Expense\t%s\n", money.FormatBRL(s.Expense))
	fmt.Fprintf(w, "Balance\t%s\n", money.FormatBRL(s.Balance))
	return w.Flush()
}

func listCategories(ctx context.Context, api *client.Client, _ []string, out io.Writer) error {
	categories, err := api.Finance().ListCategories(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, c := range categories {
		fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
	}
	return w.Flush()
}

func addCategory(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("category")
	name := fs.String("name", "", "category name")
	color := fs.String("color", "", "display color")
	icon := fs.String("icon", "", "display icon")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := finance.CreateCategoryInput{
		Name:  *name,
		Color: utils.PtrOrNil(*color),
		Icon:  utils.PtrOrNil(*icon),
	}
	c, err := api.Finance().CreateCategory(ctx, in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Created %s: %s\n", c.ID, c.Name)
	return err
}

func listIdeas(ctx context.Context, api *client.Client, _ []string, out io.Writer) error {
	list, err := api.Ideas().List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVOTES\tTITLE")
	for _, i := range list {
		fmt.Fprintf(w, "%s\t%d\t%s\n", i.ID, i.CountVotes, i.Title)
	}
	return w.Flush()
}

func addIdea(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("idea")
	title := fs.String("title", "", "idea title")
	description := fs.String("description", "", "idea description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := ideas.CreateIdeaInput{Title: *title, Description: utils.PtrOrNil(*description)}
	i, err := api.Ideas().Create(ctx, in)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Created %s: %s\n", i.ID, i.Title)
	return err
}

func comment(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("comment")
	ideaID := fs.String("idea", "", "idea id")
	content := fs.String("content", "", "comment text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := api.Ideas().Comment(ctx, *ideaID, *content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Commented %s\n", c.ID)
	return err
}

func vote(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	fs := newFlags("vote")
	ideaID := fs.String("idea", "", "idea id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	voted, err := api.Ideas().ToggleVote(ctx, *ideaID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Voted: %t\n", voted)
	return err
}
