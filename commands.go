package main

import (
	"fmt"
	"io"
	"strings"

	"library-catalog/library"

	"github.com/spf13/cobra"
)

// ------------------ Books ------------------

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, list, lend and return books",
	}
	cmd.AddCommand(
		newBookAddCmd(a),
		&cobra.Command{
			Use:   "list",
			Short: "List every book",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return handleListBooks(cmd.OutOrStdout(), a.catalog)
			},
		},
		&cobra.Command{
			Use:   "get <book-id>",
			Short: "Show one book",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return handleGetBook(cmd.OutOrStdout(), a.catalog, args[0])
			},
		},
		&cobra.Command{
			Use:   "delete <book-id>",
			Short: "Remove a book",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ok, err := a.catalog.DeleteBook(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pick(ok, "Book deleted.", "Book not found."))
				return nil
			},
		},
		newBookBorrowCmd(a),
		&cobra.Command{
			Use:   "return <book-id>",
			Short: "Mark a borrowed book as returned",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ok, err := a.catalog.ReturnBook(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), pick(ok, "Returned successfully.", "Book not found or already available."))
				return nil
			},
		},
	)
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var b library.Book
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trimmed(&b.ID, &b.Title, &b.Author, &b.Year, &b.ISBN)
			if err := b.Validate(); err != nil {
				return fmt.Errorf("invalid book: %w", err)
			}
			b.Status = library.StatusAvailable
			added, err := a.catalog.AddBookIfAbsent(b)
			if err != nil {
				return err
			}
			if !added {
				return fmt.Errorf("book ID %s already exists", b.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book %s (%s).\n", b.ID, b.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&b.ID, "id", "", "book id")
	cmd.Flags().StringVar(&b.Title, "title", "", "title")
	cmd.Flags().StringVar(&b.Author, "author", "", "author")
	cmd.Flags().StringVar(&b.Year, "year", "", "publication year")
	cmd.Flags().StringVar(&b.ISBN, "isbn", "", "ISBN")
	return cmd
}

func newBookBorrowCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "borrow <book-id> <member-id>",
		Short: "Lend a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, memberID := args[0], args[1]
			out := cmd.OutOrStdout()

			member, err := a.catalog.GetMember(memberID)
			if err != nil {
				return err
			}
			if member == nil {
				fmt.Fprintf(out, "Member %s not found.\n", memberID)
				return nil
			}
			if date == "" {
				date = a.today()
			}
			ok, err := a.catalog.BorrowBook(bookID, memberID, date)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, pick(ok, "Borrowed successfully.", "Book not available."))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "loan date (default today, YYYY-MM-DD)")
	return cmd
}

func handleListBooks(w io.Writer, catalog *library.Catalog) error {
	books, err := catalog.ListBooks()
	if err != nil {
		return err
	}
	members, err := catalog.ListMembers()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	if !isTerminal(w) {
		for _, b := range books {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				b.ID, b.Title, b.Author, b.Year, b.ISBN, b.Status, b.BorrowedBy, b.BorrowedOn)
		}
		return nil
	}

	if len(books) == 0 {
		fmt.Fprintln(w, "No books in library.")
		return nil
	}
	fmt.Fprintf(w, "%-8s %-30s %-20s %-6s %-15s %-10s %s\n", "ID", "Title", "Author", "Year", "ISBN", "Status", "Borrower")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, b := range books {
		fmt.Fprintf(w, "%-8s %-30s %-20s %-6s %-15s %-10s %s\n",
			truncateString(b.ID, 8),
			truncateString(b.Title, 30),
			truncateString(b.Author, 20),
			b.Year,
			b.ISBN,
			b.Status,
			borrowerInfo(b, names))
	}
	return nil
}

func borrowerInfo(b library.Book, names map[string]string) string {
	if b.IsAvailable() {
		return "None"
	}
	if name, ok := names[b.BorrowedBy]; ok {
		return fmt.Sprintf("%s (ID: %s) since %s", name, b.BorrowedBy, b.BorrowedOn)
	}
	return fmt.Sprintf("ID: %s (no such member) since %s", b.BorrowedBy, b.BorrowedOn)
}

func handleGetBook(w io.Writer, catalog *library.Catalog, id string) error {
	b, err := catalog.GetBook(id)
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Fprintln(w, "Book not found.")
		return nil
	}
	fmt.Fprintf(w, "ID:     %s\nTitle:  %s\nAuthor: %s\nYear:   %s\nISBN:   %s\nStatus: %s\n",
		b.ID, b.Title, b.Author, b.Year, b.ISBN, b.Status)
	if !b.IsAvailable() {
		fmt.Fprintf(w, "Borrowed by %s on %s\n", b.BorrowedBy, b.BorrowedOn)
	}
	return nil
}

// ------------------ Members ------------------

func newMemberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add, list and remove members",
	}
	cmd.AddCommand(
		newMemberAddCmd(a),
		&cobra.Command{
			Use:   "list",
			Short: "List every member",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return handleListMembers(cmd.OutOrStdout(), a.catalog)
			},
		},
		&cobra.Command{
			Use:   "get <member-id>",
			Short: "Show one member and the books they hold",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return handleGetMember(cmd.OutOrStdout(), a.catalog, args[0])
			},
		},
		&cobra.Command{
			Use:   "delete <member-id>",
			Short: "Remove a member",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return handleDeleteMember(cmd.OutOrStdout(), a.catalog, args[0])
			},
		},
	)
	return cmd
}

func newMemberAddCmd(a *app) *cobra.Command {
	var m library.Member
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trimmed(&m.ID, &m.Name, &m.Email)
			if err := m.Validate(); err != nil {
				return fmt.Errorf("invalid member: %w", err)
			}
			added, err := a.catalog.AddMemberIfAbsent(m)
			if err != nil {
				return err
			}
			if !added {
				return fmt.Errorf("member ID %s already exists", m.ID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added member '%s' with ID %s\n", m.Name, m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&m.ID, "id", "", "member id")
	cmd.Flags().StringVar(&m.Name, "name", "", "full name")
	cmd.Flags().StringVar(&m.Email, "email", "", "email address")
	return cmd
}

func handleListMembers(w io.Writer, catalog *library.Catalog) error {
	members, err := catalog.ListMembers()
	if err != nil {
		return err
	}

	if !isTerminal(w) {
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
		}
		return nil
	}

	if len(members) == 0 {
		fmt.Fprintln(w, "No members registered.")
		return nil
	}
	fmt.Fprintf(w, "%-8s %-30s %s\n", "ID", "Name", "Email")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, m := range members {
		fmt.Fprintf(w, "%-8s %-30s %s\n", truncateString(m.ID, 8), truncateString(m.Name, 30), m.Email)
	}
	return nil
}

func handleGetMember(w io.Writer, catalog *library.Catalog, id string) error {
	m, err := catalog.GetMember(id)
	if err != nil {
		return err
	}
	if m == nil {
		fmt.Fprintln(w, "Member not found.")
		return nil
	}
	held, err := catalog.BooksBorrowedBy(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ID:    %s\nName:  %s\nEmail: %s\n", m.ID, m.Name, m.Email)
	for _, b := range held {
		fmt.Fprintf(w, "Holding %s '%s' since %s\n", b.ID, b.Title, b.BorrowedOn)
	}
	return nil
}

func handleDeleteMember(w io.Writer, catalog *library.Catalog, id string) error {
	held, err := catalog.BooksBorrowedBy(id)
	if err != nil {
		return err
	}
	ok, err := catalog.DeleteMember(id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "Member not found.")
		return nil
	}
	fmt.Fprintln(w, "Member deleted.")
	for _, b := range held {
		fmt.Fprintf(w, "Warning: book %s '%s' is still recorded as borrowed by %s\n", b.ID, b.Title, id)
	}
	return nil
}

func pick(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
