package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"groundwork/internal/config"
	"groundwork/internal/decision"
	"groundwork/internal/docsource"
	"groundwork/internal/extract"
	"groundwork/internal/fault"
	"groundwork/internal/guided"
	"groundwork/internal/ids"
	"groundwork/internal/llmclient"
	"groundwork/internal/pathway"
	"groundwork/internal/store"
	"groundwork/internal/theory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if flag.NArg() < 2 {
		usage()
	}
	command, orgID := flag.Arg(0), flag.Arg(1)

	ctx := context.Background()
	logger := log.New(os.Stderr, "foundation: ", log.LstdFlags)

	st, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}
	defer closeStore()

	gen, err := ids.NewGenerator(cfg.NodeID)
	if err != nil {
		log.Fatalf("init id generator: %v", err)
	}

	switch command {
	case "status":
		runStatus(ctx, st, buildDocSource(cfg), orgID)
	case "upload":
		runUpload(ctx, buildDocSource(cfg), orgID, flag.Args()[2:], logger)
	case "guided":
		prompts, err := config.LoadPrompts(cfg.PromptsFile)
		if err != nil {
			log.Fatal(err)
		}
		machine := guided.NewMachine(st, gen, prompts, logger)
		runGuided(ctx, machine, st, orgID)
	case "extract":
		llm := buildLLM(ctx, cfg)
		defer llm.Close()
		adapter := extract.NewAdapter(llm, logger)
		src := buildDocSource(cfg)
		runExtract(ctx, adapter, src, st, gen, orgID, logger)
	case "decisions":
		llm := buildLLM(ctx, cfg)
		defer llm.Close()
		adapter := extract.NewAdapter(llm, logger)
		engine := decision.NewEngine(st, adapter, gen, logger)
		runDecisions(ctx, engine, st, orgID)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: foundation [flags] <command> <org-id>

commands:
  status     show pathway recommendation and readiness for the organization
  guided     run the guided theory-of-change conversation
  upload     add documents to the organization's corpus: upload <org-id> <file>...
  extract    extract a theory of change from uploaded documents
  decisions  run the decision-mapping conversation`)
	os.Exit(2)
}

func buildStore(cfg *config.Config) (store.Store, func(), error) {
	var base store.Store
	closer := func() {}
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		base = pg
		closer = func() { _ = pg.Close() }
	} else {
		base = store.NewMemoryStore(cfg.StateFile)
	}
	cached, err := store.NewCachedStore(base, cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return cached, closer, nil
}

func buildLLM(ctx context.Context, cfg *config.Config) llmclient.Client {
	switch strings.ToLower(cfg.LLM) {
	case "groq":
		return llmclient.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	default:
		cli, err := llmclient.NewGeminiClient(ctx, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("init gemini client: %v", err)
		}
		return cli
	}
}

func buildDocSource(cfg *config.Config) docsource.Source {
	if cfg.Docs.Endpoint != "" {
		src, err := docsource.NewS3Source(docsource.S3Config{
			Endpoint:  cfg.Docs.Endpoint,
			Region:    cfg.Docs.Region,
			AccessKey: cfg.Docs.AccessKey,
			SecretKey: cfg.Docs.SecretKey,
			Bucket:    cfg.Docs.Bucket,
			UseSSL:    cfg.Docs.UseSSL,
		})
		if err != nil {
			log.Fatalf("init document source: %v", err)
		}
		return src
	}
	return docsource.NewDirSource(cfg.Docs.Dir)
}

func runStatus(ctx context.Context, st store.Store, src docsource.Source, orgID string) {
	hasTheory := false
	if _, err := st.GetLiveTheory(ctx, orgID); err == nil {
		hasTheory = true
	}
	hasDocuments := false
	if docs, err := src.Load(ctx, orgID); err == nil && len(docs) > 0 {
		hasDocuments = true
	}
	hasPartialTheory := false
	if _, err := st.FindActiveSession(ctx, orgID); err == nil {
		hasPartialTheory = true
	}
	assessment := pathway.Assess(hasTheory, hasDocuments, hasPartialTheory)
	fmt.Printf("recommended pathway: %s\n%s\n", assessment.RecommendedPathway, assessment.Message)

	r, err := st.GetReadiness(ctx, orgID)
	if fault.IsNotFound(err) {
		fmt.Println("no readiness assessment yet")
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	printReadiness(r)
}

func runUpload(ctx context.Context, src docsource.Source, orgID string, paths []string, logger *log.Logger) {
	if len(paths) == 0 {
		usage()
	}
	sink, ok := src.(docsource.Sink)
	if !ok {
		log.Fatalf("document source %T does not accept uploads", src)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("read %s: %v", p, err)
		}
		doc := extract.Document{
			Filename: filepath.Base(p),
			Content:  string(data),
		}
		if err := sink.Put(ctx, orgID, doc); err != nil {
			log.Fatalf("upload %s: %v", p, err)
		}
		logger.Printf("uploaded %s for %s", doc.Filename, orgID)
	}
}

func runGuided(ctx context.Context, machine *guided.Machine, st store.Store, orgID string) {
	var seed *theory.TheoryOfChange
	if live, err := st.GetLiveTheory(ctx, orgID); err == nil {
		seed = &live
	}
	sess, opening, err := machine.StartSession(ctx, orgID, seed)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(opening.Content)

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		answer, ok := readAnswer(in)
		if !ok {
			return
		}
		result, err := machine.Advance(ctx, sess.ID, answer)
		if err != nil {
			if fault.IsValidation(err) {
				fmt.Println(err)
				continue
			}
			log.Fatal(err)
		}
		fmt.Printf("[%d%%] %s\n", result.Session.CompletionPercentage, result.Reply)
		if result.Completed {
			printReadiness(*result.Readiness)
			return
		}
	}
}

func runExtract(ctx context.Context, adapter *extract.Adapter, src docsource.Source, st store.Store, gen *ids.Generator, orgID string, logger *log.Logger) {
	docs, err := src.Load(ctx, orgID)
	if err != nil {
		log.Fatalf("load documents: %v", err)
	}
	logger.Printf("loaded %d documents for %s", len(docs), orgID)

	result := adapter.ParseDocuments(ctx, docs)
	fmt.Printf("extraction confidence: %.2f\n", result.Confidence)
	for _, gap := range result.Gaps {
		fmt.Printf("gap: %s\n", gap)
	}

	if result.Extracted.IsZero() {
		fmt.Println("nothing could be extracted; run the guided conversation instead:")
		for _, q := range result.Questions {
			fmt.Printf("  - %s\n", q)
		}
		return
	}

	toc := result.Extracted
	toc.ID = gen.New()
	toc.OrganizationID = orgID
	persisted, err := st.AppendTheoryVersion(ctx, toc)
	if err != nil {
		log.Fatal(err)
	}
	readiness := theory.Score(persisted)
	if err := st.SaveReadiness(ctx, readiness); err != nil {
		log.Fatal(err)
	}
	printReadiness(readiness)

	if result.NeedsGuidedCompletion {
		fmt.Println("the extracted theory has gaps; run the guided conversation to complete it:")
		for _, q := range result.Questions {
			fmt.Printf("  - %s\n", q)
		}
	}
}

func runDecisions(ctx context.Context, engine *decision.Engine, st store.Store, orgID string) {
	sess, opening, err := engine.Start(ctx, orgID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(opening)

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		answer, ok := readAnswer(in)
		if !ok {
			return
		}
		result, err := engine.Advance(ctx, sess.ID, answer)
		if err != nil {
			if fault.IsValidation(err) {
				fmt.Println(err)
				continue
			}
			log.Fatal(err)
		}
		fmt.Printf("[%d%%] %s\n", result.Session.CompletionPercentage, result.Reply)
		if result.Completed {
			printQuestions(result.Questions)
			mvm := decision.CalculateBurden(result.Questions, nil)
			out, _ := json.MarshalIndent(mvm, "", "  ")
			fmt.Printf("minimum viable measurement:\n%s\n", out)
			return
		}
	}
}

// readAnswer collects lines until a blank line; list answers keep one
// item per line. EOF with no input ends the conversation.
func readAnswer(in *bufio.Scanner) (string, bool) {
	fmt.Print("> ")
	var lines []string
	for in.Scan() {
		line := in.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

func printReadiness(r theory.FoundationReadiness) {
	fmt.Printf("readiness: %d/100 (%s)\n", r.CompletenessScore, r.Level)
	fmt.Printf("access: basic=%t intermediate=%t advanced=%t\n", r.BasicAccess, r.IntermediateAccess, r.AdvancedAccess)
	for _, m := range r.MissingElements {
		fmt.Printf("missing: %s\n", m)
	}
	for _, rec := range r.Recommendations {
		fmt.Printf("recommendation: %s\n", rec)
	}
}

func printQuestions(qs []decision.Question) {
	for _, q := range qs {
		fmt.Printf("- [%s/%s] %s\n", q.DecisionType, q.Urgency, q.Question)
	}
}
