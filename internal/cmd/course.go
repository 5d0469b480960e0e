package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gravitrone/lectern/internal/api"
	"github.com/gravitrone/lectern/internal/course"
	"github.com/gravitrone/lectern/internal/draft"
)

// CourseCmd returns the `lectern course` command group.
func CourseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Inspect and bulk-edit courses",
	}
	cmd.AddCommand(courseListCmd())
	cmd.AddCommand(courseShowCmd())
	cmd.AddCommand(coursePublishCmd())
	cmd.AddCommand(courseExportCmd())
	cmd.AddCommand(courseImportCmd())
	return cmd
}

func courseListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List courses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}
			courses, err := client.ListCourses(cmd.Context())
			if err != nil {
				return fmt.Errorf("list courses: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(courses) == 0 {
				fmt.Fprintln(out, "no courses found")
				return nil
			}
			for _, c := range courses {
				fmt.Fprintf(out, "  %s  %s  [%s]\n", c.ID, c.Title, statusOf(c))
			}
			return nil
		},
	}
}

func courseShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <course-id>",
		Short: "Print the topic and item tree of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}
			c, err := client.LoadCourse(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load course: %w", err)
			}
			printTree(cmd.OutOrStdout(), c)
			return nil
		},
	}
}

func coursePublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish <course-id>",
		Short: "Publish a course as it is on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}
			c, err := client.PublishCourse(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("publish course: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is %s\n", c.ID, statusOf(c))
			return nil
		},
	}
}

func courseExportCmd() *cobra.Command {
	var asOutline bool
	cmd := &cobra.Command{
		Use:   "export <course-id>",
		Short: "Write a course as YAML to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := loadClient()
			if err != nil {
				return err
			}
			c, err := client.LoadCourse(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load course: %w", err)
			}
			var doc any = c
			if asOutline {
				doc = OutlineOf(c)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode course: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&asOutline, "outline", false, "write the id-free outline accepted by import")
	return cmd
}

func courseImportCmd() *cobra.Command {
	var (
		replace bool
		publish bool
	)
	cmd := &cobra.Command{
		Use:   "import <course-id> <outline.yaml|->",
		Short: "Apply a YAML outline to a course and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := loadClient()
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			outline, err := ParseOutline(data)
			if err != nil {
				return err
			}

			log, err := NewLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			sess, err := draft.Open(cmd.Context(), client, args[0], draft.Options{
				Media:  api.Media(cfg.Media()),
				Logger: log,
			})
			if err != nil {
				return err
			}
			staged, err := ApplyOutline(sess.Store(), outline, replace)
			if err != nil {
				return fmt.Errorf("apply outline: %w", err)
			}

			mode := draft.ModeSaveDraft
			if publish {
				mode = draft.ModePublish
			}
			res, err := sess.Commit(cmd.Context(), mode)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "staged %d, created %d, updated %d, deleted %d\n",
				staged, res.Created, res.Updated, res.Deleted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing topics first")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish after saving")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func statusOf(c course.Course) string {
	if c.Status == "" {
		return course.StatusDraft
	}
	return c.Status
}

func printTree(out io.Writer, c course.Course) {
	fmt.Fprintf(out, "%s (%s) [%s]\n", c.Title, c.ID, statusOf(c))
	if len(c.Topics) == 0 {
		fmt.Fprintln(out, "  no topics")
		return
	}
	for ti, t := range c.Topics {
		fmt.Fprintf(out, "  %d. %s\n", ti+1, t.Title)
		for ii, it := range t.Items {
			fmt.Fprintf(out, "     %d.%d %s\n", ti+1, ii+1, it.Label())
		}
	}
}
