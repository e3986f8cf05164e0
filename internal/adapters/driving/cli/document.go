package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/mango"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document"},
	Short:   "Manage stored documents",
	Long:    `Create, read, update, replace, delete and query products, customers, orders and events.`,
}

var documentCreateCmd = &cobra.Command{
	Use:   "create [kind]",
	Short: "Create a document from JSON",
	Long: `Create a document from --data or --file ("-" reads stdin). When kind is
given it sets the "type" field. An ID is generated when "_id" is missing.

Examples:
  couchlab doc create product --data '{"name":"Lamp","category":"Home","price":39.9,"stock":12}'
  couchlab doc create --file order.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocumentCreate,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Print a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentUpdateCmd = &cobra.Command{
	Use:   "update [doc-id]",
	Short: "Merge fields into a document",
	Long: `Merge fields into a stored document. --rev must be the revision you last
read; a stale revision is rejected as a conflict.

Fields come from repeated --set key=value (values are parsed as JSON when
possible) and from --data, a JSON object.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentUpdate,
}

var documentReplaceCmd = &cobra.Command{
	Use:   "replace",
	Short: "Overwrite a document",
	Long:  `Overwrite a document with --data or --file. The body must carry "_id" and the current "_rev".`,
	Args:  cobra.NoArgs,
	RunE:  runDocumentReplace,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentFindCmd = &cobra.Command{
	Use:   "find [kind] [filter...]",
	Short: "Query documents of one kind",
	Long: `Query documents of one kind with field filters.

Filters:
  field=value      equality (numbers and booleans are typed)
  field>=value     also >, <, <=
  field=lo..hi     inclusive range
  field~a|b|c      any of the values

Examples:
  couchlab doc find products category=Electronics price>=100 --sort price:desc
  couchlab doc find orders status~pending|shipped --all`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentFind,
}

var documentInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database statistics",
	Args:  cobra.NoArgs,
	RunE:  runDocumentInfo,
}

// Flags for document commands.
var (
	docData     string
	docFile     string
	docRev      string
	docSet      []string
	docSoft     bool
	docLimit    int
	docSort     []string
	docFields   []string
	docBookmark string
	docAll      bool
)

func init() {
	for _, c := range []*cobra.Command{documentCreateCmd, documentUpdateCmd, documentReplaceCmd} {
		c.Flags().StringVar(&docData, "data", "", "Document JSON")
	}
	documentCreateCmd.Flags().StringVarP(&docFile, "file", "f", "", "Read document JSON from file (- for stdin)")
	documentReplaceCmd.Flags().StringVarP(&docFile, "file", "f", "", "Read document JSON from file (- for stdin)")

	documentUpdateCmd.Flags().StringVar(&docRev, "rev", "", "Current revision (required)")
	documentUpdateCmd.Flags().StringArrayVar(&docSet, "set", nil, "Field to set as key=value (repeatable)")

	documentDeleteCmd.Flags().StringVar(&docRev, "rev", "", "Current revision (required)")
	documentDeleteCmd.Flags().BoolVar(&docSoft, "soft", false, "Mark the document deleted instead of removing it")

	documentFindCmd.Flags().IntVarP(&docLimit, "limit", "n", 25, "Maximum documents per page")
	documentFindCmd.Flags().StringArrayVar(&docSort, "sort", nil, "Sort field, optionally field:desc (repeatable)")
	documentFindCmd.Flags().StringSliceVar(&docFields, "fields", nil, "Only return these fields")
	documentFindCmd.Flags().StringVar(&docBookmark, "bookmark", "", "Continue from a previous page")
	documentFindCmd.Flags().BoolVar(&docAll, "all", false, "Fetch every page")

	documentCmd.AddCommand(documentCreateCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentUpdateCmd)
	documentCmd.AddCommand(documentReplaceCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentFindCmd)
	documentCmd.AddCommand(documentInfoCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentCreate(cmd *cobra.Command, args []string) error {
	if crudService == nil {
		return notConfigured("document")
	}

	raw, err := readDocumentInput(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		kind, err := domain.ParseKind(args[0])
		if err != nil {
			return err
		}
		raw["type"] = string(kind)
	}
	doc, err := decodeRaw(raw)
	if err != nil {
		return err
	}

	result := crudService.Create(commandContext(cmd), doc)
	return emit(cmd, result, func(w domain.WriteResult) {
		cmd.Printf("Created %s (rev %s)\n", w.ID, w.Rev)
	})
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if crudService == nil {
		return notConfigured("document")
	}

	result := crudService.GetRaw(commandContext(cmd), args[0])
	return emit(cmd, result, func(doc domain.RawDoc) {
		_ = writeJSON(cmd.OutOrStdout(), doc) //nolint:errcheck // best-effort terminal output
	})
}

func runDocumentUpdate(cmd *cobra.Command, args []string) error {
	if crudService == nil {
		return notConfigured("document")
	}
	if docRev == "" {
		return errors.New("--rev is required")
	}

	patch := map[string]any{}
	if docData != "" {
		if err := json.Unmarshal([]byte(docData), &patch); err != nil {
			return fmt.Errorf("parsing --data: %w", err)
		}
	}
	for _, kv := range docSet {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		patch[key] = parseValue(value)
	}
	if len(patch) == 0 {
		return errors.New("nothing to update: use --set or --data")
	}

	result := crudService.Update(commandContext(cmd), args[0], docRev, patch)
	return emit(cmd, result, func(w domain.WriteResult) {
		cmd.Printf("Updated %s (rev %s)\n", w.ID, w.Rev)
	})
}

func runDocumentReplace(cmd *cobra.Command, _ []string) error {
	if crudService == nil {
		return notConfigured("document")
	}

	raw, err := readDocumentInput(cmd)
	if err != nil {
		return err
	}
	doc, err := decodeRaw(raw)
	if err != nil {
		return err
	}

	result := crudService.Replace(commandContext(cmd), doc)
	return emit(cmd, result, func(w domain.WriteResult) {
		cmd.Printf("Replaced %s (rev %s)\n", w.ID, w.Rev)
	})
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if crudService == nil {
		return notConfigured("document")
	}
	if docRev == "" {
		return errors.New("--rev is required")
	}

	result := crudService.Delete(commandContext(cmd), args[0], docRev, docSoft)
	return emit(cmd, result, func(w domain.WriteResult) {
		if docSoft {
			cmd.Printf("Marked %s deleted (rev %s)\n", w.ID, w.Rev)
			return
		}
		cmd.Printf("Deleted %s\n", w.ID)
	})
}

func runDocumentFind(cmd *cobra.Command, args []string) error {
	if crudService == nil {
		return notConfigured("document")
	}

	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	b, err := mango.FromFilters(kind, args[1:])
	if err != nil {
		return err
	}
	for _, s := range docSort {
		b.SortBy(s)
	}
	if len(docFields) > 0 {
		b.Fields(docFields...)
	}
	q, err := b.Limit(docLimit).Build()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if docAll {
		result := crudService.FindAll(ctx, q)
		return emit(cmd, result, func(docs []domain.RawDoc) {
			printDocuments(cmd, kind, docs)
		})
	}

	q.Bookmark = docBookmark
	result := crudService.Find(ctx, q)
	return emit(cmd, result, func(page domain.FindResult) {
		printDocuments(cmd, kind, page.Docs)
		if page.Warning != "" {
			cmd.Printf("Warning: %s\n", page.Warning)
		}
		if page.Bookmark != "" && len(page.Docs) == docLimit {
			cmd.Printf("Next page: --bookmark %s\n", page.Bookmark)
		}
	})
}

func runDocumentInfo(cmd *cobra.Command, _ []string) error {
	if crudService == nil {
		return notConfigured("document")
	}

	result := crudService.Info(commandContext(cmd))
	return emit(cmd, result, func(info domain.DatabaseInfo) {
		cmd.Printf("Database: %s\n\n", info.Name)
		cmd.Printf("  Documents:         %d\n", info.DocCount)
		cmd.Printf("  Deleted documents: %d\n", info.DocDelCount)
		cmd.Printf("  File size:         %d bytes\n", info.Sizes.File)
		cmd.Printf("  Data size:         %d bytes\n", info.Sizes.External)
	})
}

func printDocuments(cmd *cobra.Command, kind domain.Kind, docs []domain.RawDoc) {
	if len(docs) == 0 {
		cmd.Printf("No %s found\n", strings.ToLower(kind.Label()))
		return
	}
	for _, doc := range docs {
		cmd.Printf("  %s  %s\n", doc.ID(), summarize(doc))
	}
	cmd.Printf("\nTotal: %d %s\n", len(docs), strings.ToLower(kind.Label()))
}

// summarize returns a one-line description of a document.
func summarize(doc domain.RawDoc) string {
	str := func(k string) string {
		s, _ := doc[k].(string)
		return s
	}
	switch doc.Kind() {
	case domain.KindProduct:
		return fmt.Sprintf("%s  [%s]  %v", str("name"), str("category"), doc["price"])
	case domain.KindCustomer:
		return fmt.Sprintf("%s  <%s>", str("name"), str("email"))
	case domain.KindOrder:
		return fmt.Sprintf("%s  %s  %v", str("customer_id"), str("status"), doc["total"])
	case domain.KindEvent:
		return fmt.Sprintf("%s  %s %s", str("event_type"), str("entity_type"), str("entity_id"))
	}
	return ""
}

// readDocumentInput reads a JSON object from --data or --file.
func readDocumentInput(cmd *cobra.Command) (domain.RawDoc, error) {
	var data []byte
	switch {
	case docData != "":
		data = []byte(docData)
	case docFile == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		data = b
	case docFile != "":
		b, err := os.ReadFile(docFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", docFile, err)
		}
		data = b
	default:
		return nil, errors.New("provide the document with --data or --file")
	}

	var raw domain.RawDoc
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: document must be a JSON object: %v", domain.ErrInvalidInput, err)
	}
	return raw, nil
}

func decodeRaw(raw domain.RawDoc) (domain.Document, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return domain.DecodeDocument(data)
}

// parseValue decodes JSON scalars and literals, falling back to the raw string.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
