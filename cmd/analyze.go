package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/ats-scorer/internal/competitor"
	"github.com/spigell/ats-scorer/internal/cv"
	"github.com/spigell/ats-scorer/internal/headhunter"
	"github.com/spigell/ats-scorer/internal/keywords"
	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/metrics"
	"github.com/spigell/ats-scorer/internal/pipeline"
	"github.com/spigell/ats-scorer/internal/secrets"
	"github.com/spigell/ats-scorer/internal/verify"
	"go.uber.org/zap"
)

const (
	PromptBreakdown = "Show score breakdown"
	PromptSystems   = "Show ATS simulations"
	PromptExit      = "Exit"
)

var errExit = errors.New("exit requested")

var analyzeCmd = &cobra.Command{
	Use:          "analyze",
	Short:        "Analyze a CV and print the ATS compatibility report",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addAnalyzeFlags(analyzeCmd)

	for _, name := range []string{"industry", "role", "keywords", "offline", "metrics-file"} {
		viper.BindPFlag(name, analyzeCmd.Flags().Lookup(name))
	}
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().String("cv", "", "CV file in JSON or YAML format")
	cmd.Flags().String("hh-resume", "", "title of one of your hh.ru resumes to analyze instead of a file")
	cmd.Flags().String("hh-vacancy", "", "hh.ru vacancy id used as the job description, role and keywords")
	cmd.Flags().String("industry", "", "industry: technology, finance, healthcare, marketing or sales")
	cmd.Flags().String("role", "", "target role")
	cmd.Flags().StringSlice("keywords", nil, "comma separated target keywords")
	cmd.Flags().String("job-description", "", "file with the job description text")
	cmd.Flags().Bool("offline", false, "do not call text generation services")
	cmd.Flags().StringP("output", "o", "", "write the JSON report to this file instead of stdout")
	cmd.Flags().BoolP("interactive", "i", false, "browse the recommendations after the analysis")
	cmd.Flags().String("metrics-file", "", "write prometheus metrics to this file (node_exporter textfile format)")
}

func analyze(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the ats-scorer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	req, err := buildRequest(ctx, cmd, config, logger)
	if err != nil {
		return err
	}

	rec := metrics.New()
	engine, err := newEngine(ctx, config, logger, rec)
	if err != nil {
		logger.Fatal("creating the analysis engine", zap.Error(err))
	}

	result := engine.Analyze(ctx, req)

	if err := writeReport(cmd, result); err != nil {
		return err
	}

	if config.MetricsFile != "" {
		if err := rec.WriteTextfile(config.MetricsFile); err != nil {
			logger.Warn("writing metrics file", zap.String("filename", config.MetricsFile), zap.Error(err))
		} else {
			logger.Info("metrics written", zap.String("filename", config.MetricsFile))
		}
	}

	if interactive, _ := cmd.Flags().GetBool("interactive"); interactive {
		if err := browse(cmd.ErrOrStderr(), result); err != nil && !errors.Is(err, errExit) {
			return err
		}
	}
	return nil
}

func newEngine(ctx context.Context, config *Config, log *zap.Logger, rec *metrics.Recorder) (*pipeline.Engine, error) {
	deps := pipeline.Deps{
		Logger:  log,
		Metrics: rec,
		Version: version,
	}

	if config.Offline {
		log.Info("text generation disabled", zap.String("reason", "offline mode"))
		return pipeline.New(deps)
	}

	primary, secondary := newGenerators(ctx, config.AI, log, rec)
	timeout := config.AI.Timeout
	deps.Keywords = keywords.NewAnalyzer(primary, timeout, log)
	deps.Competitor = competitor.NewAnalyzer(primary, timeout, log)
	deps.Verifier = verify.New(primary, secondary, timeout, log)

	return pipeline.New(deps)
}

// buildRequest loads the CV from a file or hh.ru and resolves the target
// role, keywords and job description. Explicit flags win over the vacancy.
func buildRequest(ctx context.Context, cmd *cobra.Command, config *Config, log *zap.Logger) (pipeline.Request, error) {
	req := pipeline.Request{
		Industry:       config.Industry,
		TargetRole:     config.Role,
		TargetKeywords: config.Keywords,
	}

	cvPath, _ := cmd.Flags().GetString("cv")
	resumeTitle, _ := cmd.Flags().GetString("hh-resume")
	vacancyID, _ := cmd.Flags().GetString("hh-vacancy")

	if (cvPath == "") == (resumeTitle == "") {
		return req, errors.New("exactly one of --cv or --hh-resume is required")
	}

	if jdPath, _ := cmd.Flags().GetString("job-description"); jdPath != "" {
		data, err := os.ReadFile(jdPath)
		if err != nil {
			return req, fmt.Errorf("reading job description: %w", err)
		}
		req.JobDescription = string(data)
	}

	if cvPath != "" {
		parsed, err := cv.Load(cvPath)
		if err != nil {
			return req, err
		}
		req.CV = parsed
	}

	if resumeTitle == "" && vacancyID == "" {
		return req, nil
	}

	hh, err := newHeadhunter(config.HH, log)
	if err != nil {
		return req, err
	}

	if resumeTitle != "" {
		parsed, err := fetchResume(ctx, hh, resumeTitle, log)
		if err != nil {
			return req, err
		}
		req.CV = parsed
	}

	if vacancyID != "" {
		vacancy, err := hh.GetVacancy(ctx, vacancyID)
		if err != nil {
			return req, fmt.Errorf("getting vacancy %s: %w", vacancyID, err)
		}
		posting, err := vacancy.Posting()
		if err != nil {
			return req, err
		}
		log.Info("using vacancy",
			zap.String("vacancy_id", vacancyID),
			zap.String("vacancy_name", posting.Role),
			zap.String("employer", posting.Employer),
			zap.Int("key_skills", len(posting.Keywords)),
		)
		req = applyPosting(req, posting)
	}

	return req, nil
}

func applyPosting(req pipeline.Request, posting headhunter.Posting) pipeline.Request {
	if strings.TrimSpace(req.TargetRole) == "" {
		req.TargetRole = posting.Role
	}
	if len(req.TargetKeywords) == 0 {
		req.TargetKeywords = posting.Keywords
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		req.JobDescription = posting.JobDescription
	}
	return req
}

func newHeadhunter(config *HHConfig, log *zap.Logger) (*headhunter.Client, error) {
	token, err := secrets.Load(secrets.Source{
		Name: "headhunter token",
		File: config.TokenFile,
		Env:  "HH_TOKEN",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set HH_TOKEN_FILE or the 'hh.token-file' key in the configuration file)", err)
	}

	hh := headhunter.New(log, token)
	if config.UserAgent != "" {
		hh.UserAgent = config.UserAgent
	}
	return hh, nil
}

func fetchResume(ctx context.Context, hh *headhunter.Client, title string, log *zap.Logger) (*cv.ParsedCV, error) {
	resumes, err := hh.GetMineResumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting mine resumes: %w", err)
	}

	log.Info("getting mine resumes", zap.Int("count", resumes.Len()))

	selected := resumes.FindByTitle(title)
	if selected == nil {
		return nil, fmt.Errorf("resume with title %q not found, existing titles: %s", title, strings.Join(resumes.Titles(), ", "))
	}

	return hh.GetResumeCV(ctx, selected.ID)
}

func writeReport(cmd *cobra.Command, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// browse lets the user walk through the ranked recommendations.
func browse(w io.Writer, result *pipeline.Result) error {
	fmt.Fprintf(w, "Overall %d (adjusted %d), mode %s\n", result.Overall, result.AdjustedOverall, result.Metadata.Mode)

	for {
		items := make([]string, 0, len(result.Recommendations)+3)
		for i, rec := range result.Recommendations {
			items = append(items, fmt.Sprintf("%d. [%s] %s (+%d)", i+1, rec.Priority, rec.Title, rec.EstimatedScoreImprovement))
		}
		items = append(items, PromptBreakdown, PromptSystems, PromptExit)

		selectPrompt := promptui.Select{
			Label: "Choose a recommendation and press ENTER",
			Items: items,
			Size:  10,
		}

		idx, selected, err := selectPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptExit:
			return errExit
		case PromptBreakdown:
			pretty, _ := json.MarshalIndent(result.Breakdown, "", "  ")
			fmt.Fprintln(w, string(pretty))
		case PromptSystems:
			for _, sim := range result.Score.SimulationResults {
				fmt.Fprintf(w, "%-12s pass rate %3d%%  %s\n", sim.SystemName, sim.PassRate, strings.Join(sim.Issues, "; "))
			}
		default:
			rec := result.Recommendations[idx]
			fmt.Fprintf(w, "%s\n  %s\n  section: %s, effort: %s, action: %s, impact: %d\n",
				rec.Title, rec.Description, rec.Section, rec.Effort, rec.ActionRequired, rec.Impact)
			if len(rec.ATSSystemsAffected) > 0 {
				fmt.Fprintf(w, "  systems: %s\n", strings.Join(rec.ATSSystemsAffected, ", "))
			}
		}
	}
}

// redacted hides inline secrets before the config is logged.
func redacted(config *Config) *Config {
	copied := *config
	if config.AI != nil {
		ai := *config.AI
		if ai.Gemini != nil && ai.Gemini.APIKey != "" {
			g := *ai.Gemini
			g.APIKey = "***"
			ai.Gemini = &g
		}
		if ai.OpenAI != nil && ai.OpenAI.APIKey != "" {
			o := *ai.OpenAI
			o.APIKey = "***"
			ai.OpenAI = &o
		}
		copied.AI = &ai
	}
	return &copied
}
