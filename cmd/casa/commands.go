package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/session"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("invalid arguments, run casa -h for usage")

// run executes one command against a loaded session and prints to out
func run(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	command, rest := args[0], args[1:]

	switch command {
	case "summary":
		return runSummary(sess, rest, out)
	case "expenses":
		return runExpenses(sess, rest, out)
	case "receivables":
		return runReceivables(sess, rest, out)
	case "add-expense":
		return runAddExpense(ctx, sess, rest, out)
	case "pay":
		return runPay(ctx, sess, rest, out)
	case "delete-expense":
		id, err := singleArg(rest)
		if err != nil {
			return err
		}
		return sess.DeleteExpense(ctx, id)
	case "add-receivable":
		return runAddReceivable(ctx, sess, rest, out)
	case "receive":
		return runReceive(ctx, sess, rest, out)
	case "delete-receivable":
		id, err := singleArg(rest)
		if err != nil {
			return err
		}
		return sess.DeleteReceivable(ctx, id)
	case "settings":
		printSettings(sess.Settings(), out)
		return nil
	case "income":
		raw, err := singleArg(rest)
		if err != nil {
			return err
		}
		income, err := parseAmount(raw)
		if err != nil {
			return err
		}
		if err := sess.SetMonthlyIncome(ctx, income); err != nil {
			return err
		}
		fmt.Fprintf(out, "Monthly income set to %s\n", domain.FormatMoney(income))
		return nil
	case "add-person":
		if len(rest) == 0 {
			return errUsage
		}
		person, err := sess.AddPerson(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %s (%s)\n", person.Name, person.ID)
		return nil
	case "remove-person":
		id, err := singleArg(rest)
		if err != nil {
			return err
		}
		return sess.RemovePerson(ctx, id)
	case "add-category":
		return runAddCategory(ctx, sess, rest, out)
	case "remove-category":
		id, err := singleArg(rest)
		if err != nil {
			return err
		}
		return sess.RemoveCategory(ctx, id)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func singleArg(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errUsage
	}
	return args[0], nil
}

// selectMonth applies the -month flag, keeping the session month when empty
func selectMonth(sess *session.Session, raw string) error {
	if raw == "" {
		return nil
	}
	month, err := domain.ParseCalendarMonth(raw)
	if err != nil {
		return err
	}
	sess.SelectMonth(month)
	return nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return amount, nil
}

func parseDue(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: due date must be YYYY-MM-DD", domain.ErrValidation)
	}
	return &due, nil
}

// splitOrEveryone parses a comma separated id list. Empty means every person.
func splitOrEveryone(raw string, settings *domain.Settings) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 || settings == nil {
		return ids
	}
	for _, p := range settings.People {
		ids = append(ids, p.ID)
	}
	return ids
}

func parseInstallments(raw string) (*domain.Installments, error) {
	if raw == "" {
		return nil, nil
	}
	current, total, ok := strings.Cut(raw, "/")
	if !ok {
		return nil, domain.ErrInvalidInstallments
	}
	c, err1 := strconv.Atoi(current)
	t, err2 := strconv.Atoi(total)
	if err1 != nil || err2 != nil {
		return nil, domain.ErrInvalidInstallments
	}
	return &domain.Installments{Current: c, Total: t}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func runSummary(sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("summary")
	month := fs.String("month", "", "Month as YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := selectMonth(sess, *month); err != nil {
		return err
	}

	summary := sess.Summary()
	if summary == nil {
		return domain.ErrUnauthorized
	}

	fmt.Fprintf(out, "Month              %s", summary.Month)
	if summary.IsHistorical {
		fmt.Fprint(out, " (past)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Monthly income     %s\n", domain.FormatMoney(summary.MonthlyIncome))
	fmt.Fprintf(out, "Receivables        %s (%d/%d received)\n",
		domain.FormatMoney(summary.Receivables.Sum), summary.Receivables.PaidCount, summary.Receivables.TotalCount)
	fmt.Fprintf(out, "Expenses           %s (%d/%d paid)\n",
		domain.FormatMoney(summary.Expenses.Sum), summary.Expenses.PaidCount, summary.Expenses.TotalCount)
	fmt.Fprintf(out, "Projected balance  %s", domain.FormatMoney(summary.ProjectedBalance))
	if summary.IsNegative() {
		fmt.Fprint(out, "  NEGATIVE")
	}
	fmt.Fprintln(out)

	if len(summary.Shares) > 0 {
		fmt.Fprintln(out, "\nShares")
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, share := range summary.Shares {
			name := share.Name
			if share.Orphan {
				name = share.PersonID + " (removed)"
			}
			fmt.Fprintf(w, "  %s\t%s\n", name, domain.FormatMoney(share.Amount))
		}
		w.Flush()
	}

	if len(summary.PendingExpenses) > 0 {
		fmt.Fprintln(out, "\nPending expenses")
		printExpenses(summary.PendingExpenses, out)
	}
	if len(summary.PendingReceivables) > 0 {
		fmt.Fprintln(out, "\nPending receivables")
		printReceivables(summary.PendingReceivables, out)
	}
	return nil
}

func runExpenses(sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("expenses")
	month := fs.String("month", "", "Month as YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := selectMonth(sess, *month); err != nil {
		return err
	}
	selected := sess.SelectedMonth()
	var inMonth []*domain.Expense
	for _, e := range sess.Expenses() {
		if selected.Contains(e.DueDate) {
			inMonth = append(inMonth, e)
		}
	}
	printExpenses(inMonth, out)
	return nil
}

func runReceivables(sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("receivables")
	month := fs.String("month", "", "Month as YYYY-MM")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := selectMonth(sess, *month); err != nil {
		return err
	}
	selected := sess.SelectedMonth()
	var inMonth []*domain.Receivable
	for _, r := range sess.Receivables() {
		if selected.Contains(r.DueDate) {
			inMonth = append(inMonth, r)
		}
	}
	printReceivables(inMonth, out)
	return nil
}

func runAddExpense(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("add-expense")
	desc := fs.String("desc", "", "Description")
	amount := fs.String("amount", "", "Amount")
	category := fs.String("category", "", "Category id")
	kind := fs.String("kind", string(domain.ExpenseKindVariable), "fixed, variable or installment")
	due := fs.String("due", "", "Due date as YYYY-MM-DD (default today)")
	split := fs.String("split", "", "Comma separated person ids (default everyone)")
	essential := fs.Bool("essential", false, "Mark as essential")
	installment := fs.String("installment", "", "Installment position as n/m")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	value, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	dueDate, err := parseDue(*due)
	if err != nil {
		return err
	}
	installments, err := parseInstallments(*installment)
	if err != nil {
		return err
	}

	created, err := sess.AddExpense(ctx, service.CreateExpenseInput{
		Description:  *desc,
		Amount:       value,
		Kind:         domain.ExpenseKind(*kind),
		Category:     *category,
		IsEssential:  *essential,
		DueDate:      dueDate,
		SplitBetween: splitOrEveryone(*split, sess.Settings()),
		Installments: installments,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added expense %s\n", created.ID)
	return nil
}

func runPay(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("pay")
	by := fs.String("by", "", "Person id who paid")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := singleArg(fs.Args())
	if err != nil {
		return err
	}
	paid, err := sess.MarkExpensePaid(ctx, id, optional(*by))
	if err != nil {
		return err
	}
	if paid.PaidDate != nil {
		fmt.Fprintf(out, "Paid %s on %s\n", paid.Description, paid.PaidDate.Format("2006-01-02"))
	} else {
		fmt.Fprintf(out, "Paid %s\n", paid.Description)
	}
	return nil
}

func runAddReceivable(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("add-receivable")
	desc := fs.String("desc", "", "Description")
	amount := fs.String("amount", "", "Amount")
	category := fs.String("category", "", "Category id")
	due := fs.String("due", "", "Due date as YYYY-MM-DD (default today)")
	split := fs.String("split", "", "Comma separated person ids (default everyone)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	value, err := parseAmount(*amount)
	if err != nil {
		return err
	}
	dueDate, err := parseDue(*due)
	if err != nil {
		return err
	}

	created, err := sess.AddReceivable(ctx, service.CreateReceivableInput{
		Description:  *desc,
		Amount:       value,
		Category:     *category,
		DueDate:      dueDate,
		SplitBetween: splitOrEveryone(*split, sess.Settings()),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added receivable %s\n", created.ID)
	return nil
}

func runReceive(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("receive")
	by := fs.String("by", "", "Person id who received")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := singleArg(fs.Args())
	if err != nil {
		return err
	}
	received, err := sess.MarkReceivableReceived(ctx, id, optional(*by))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Received %s\n", received.Description)
	return nil
}

func runAddCategory(ctx context.Context, sess *session.Session, args []string, out io.Writer) error {
	fs := newFlagSet("add-category")
	name := fs.String("name", "", "Category name")
	kind := fs.String("kind", string(domain.CategoryKindExpense), "expense or income")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	category, err := sess.AddCategory(ctx, *name, domain.CategoryKind(*kind))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %s category %s (%s)\n", *kind, category.Name, category.ID)
	return nil
}

func printExpenses(expenses []*domain.Expense, out io.Writer) {
	if len(expenses) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range expenses {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			e.ID, e.DueDate.Format("2006-01-02"), e.Description, domain.FormatMoney(e.Amount), e.Status)
	}
	w.Flush()
}

func printReceivables(receivables []*domain.Receivable, out io.Writer) {
	if len(receivables) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range receivables {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
			r.ID, r.DueDate.Format("2006-01-02"), r.Description, domain.FormatMoney(r.Amount), r.Status)
	}
	w.Flush()
}

func printSettings(settings *domain.Settings, out io.Writer) {
	if settings == nil {
		fmt.Fprintln(out, "No settings loaded")
		return
	}
	fmt.Fprintf(out, "Monthly income  %s\n\nPeople\n", domain.FormatMoney(settings.MonthlyIncome))
	for _, p := range settings.People {
		fmt.Fprintf(out, "  %s  %s\n", p.ID, p.Name)
	}
	fmt.Fprintln(out, "\nExpense categories")
	for _, c := range settings.ExpenseCategories {
		fmt.Fprintf(out, "  %s  %s\n", c.ID, c.Name)
	}
	fmt.Fprintln(out, "\nIncome categories")
	for _, c := range settings.IncomeCategories {
		fmt.Fprintf(out, "  %s  %s\n", c.ID, c.Name)
	}
}
