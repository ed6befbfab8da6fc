package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fankeji/debtbook/internal/app/backup"
	"github.com/fankeji/debtbook/internal/infra/download"
)

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)

	backupCmd.Flags().StringP("out", "o", "", "Output directory (default from config)")
	restoreCmd.Flags().BoolP("yes", "y", false, "Skip the overwrite confirmation")
}

// ─── backup ─────────────────────────────────────────────────────────────────

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export all data to a portable JSON file",
	Long: `Export the profile and every record to a self-describing JSON file.
The file carries usage guidance so it can be hand-edited before a
restore.`,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := backup.Serialize(st.Profile(), st.Records())
	if err != nil {
		return fmt.Errorf("serialize backup: %w", err)
	}

	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.Export.Dir
	}
	filename := backup.Filename(time.Now())
	sink := download.DirSink{Dir: outDir, Log: newLogger()}
	if err := sink.Offer(filename, backup.MIMEType, data); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✅ 已备份 %d 条账单到 %s\n", len(st.Records()), filename)
	return nil
}

// ─── restore ────────────────────────────────────────────────────────────────

var restoreCmd = &cobra.Command{
	Use:   "restore FILE",
	Short: "Replace all data from a backup file",
	Long: `Parse a backup file and replace the current profile and records with
its contents. The current data is overwritten, not merged, so the
command states what the file contains and asks before committing.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read backup file: %w", err)
	}
	restored, err := backup.Deserialize(data)
	if err != nil {
		return err
	}

	skipPrompt, _ := cmd.Flags().GetBool("yes")
	if !skipPrompt {
		prompt := fmt.Sprintf("检测到备份文件，包含 %d 条账单。确认覆盖当前数据吗？[y/N]: ", restored.Count())
		if !confirm(prompt) {
			fmt.Fprintln(os.Stdout, "已取消。")
			return nil
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.ReplaceAll(restored.Records, restored.Profile); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✅ 已恢复 %d 条账单。\n", restored.Count())
	return nil
}
