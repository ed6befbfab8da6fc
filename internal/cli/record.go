package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fankeji/debtbook/internal/app/ics"
	"github.com/fankeji/debtbook/internal/domain"
	"github.com/fankeji/debtbook/internal/infra/download"
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(calendarCmd)

	addCmd.Flags().StringP("type", "t", "incoming", "Record direction: incoming (owed to you) or outgoing (you owe)")
	addCmd.Flags().StringP("name", "n", "", "Counterparty name")
	addCmd.Flags().StringP("amount", "a", "", "Amount in yuan")
	addCmd.Flags().StringP("due", "d", "", "Due date, YYYY-MM-DD")
	addCmd.Flags().String("time", "09:00", "Due time, HH:MM")
	addCmd.Flags().StringP("reason", "r", "", "Optional note")
	addCmd.Flags().Bool("calendar", false, "Also export a calendar reminder for this record")

	listCmd.Flags().StringP("type", "t", "", "Filter by direction: incoming or outgoing")

	profileCmd.Flags().String("name", "", "Your name, used on commitment letters")
	profileCmd.Flags().String("idcard", "", "Your ID card number")

	calendarCmd.Flags().StringP("out", "o", "", "Output directory (default from config)")
}

// ─── add ────────────────────────────────────────────────────────────────────

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new debt",
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	typ, _ := cmd.Flags().GetString("type")
	name, _ := cmd.Flags().GetString("name")
	amountStr, _ := cmd.Flags().GetString("amount")
	due, _ := cmd.Flags().GetString("due")
	dueTime, _ := cmd.Flags().GetString("time")
	reason, _ := cmd.Flags().GetString("reason")
	toCalendar, _ := cmd.Flags().GetBool("calendar")

	amount, err := domain.ParseAmount(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q", amountStr)
	}
	rec, err := st.Add(domain.DebtRecord{
		Type:          domain.DebtType(typ),
		Name:          name,
		Amount:        amount,
		DueDate:       due,
		DueTime:       dueTime,
		Reason:        reason,
		AddToCalendar: toCalendar,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✅ 已记录 #%d：%s %s元，%s %s 到期\n",
		rec.ID, rec.Name, rec.Amount.Grouped(), rec.DueDate, rec.DueTime)

	if rec.AddToCalendar {
		sink := download.DirSink{Dir: cfg.Export.Dir, Log: newLogger()}
		if err := sink.Offer(ics.Filename(rec), ics.MIMEType, []byte(ics.BuildEvent(rec))); err != nil {
			return fmt.Errorf("export calendar event: %w", err)
		}
		fmt.Fprintf(os.Stdout, "📅 日历提醒已导出到 %s\n", cfg.Export.Dir)
	}
	return nil
}

// ─── list ───────────────────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List debts with due status",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	filter, _ := cmd.Flags().GetString("type")
	now := time.Now()
	records := st.Records()
	domain.SortByDue(records, time.Local)
	shown := 0
	for _, rec := range records {
		if filter != "" && rec.Type != domain.DebtType(filter) {
			continue
		}
		shown++
		fmt.Fprintf(os.Stdout, "#%d  %s  %-8s %10s元  %s %s  %s\n",
			rec.ID, directionLabel(rec.Type), rec.Name, rec.Amount.Grouped(),
			rec.DueDate, rec.DueTime, badgeLabel(domain.Classify(rec.DueDate, now)))
	}
	if shown == 0 {
		fmt.Fprintln(os.Stdout, "暂无账单。")
		return nil
	}
	fmt.Fprintf(os.Stdout, "\n待收 %s元 / 待还 %s元 / 净额 %s元\n",
		st.TotalFor(domain.Incoming).Grouped(),
		st.TotalFor(domain.Outgoing).Grouped(),
		st.NetBalance().Grouped())
	return nil
}

func directionLabel(t domain.DebtType) string {
	if t == domain.Outgoing {
		return "我欠"
	}
	return "欠我"
}

func badgeLabel(b domain.Badge) string {
	switch b {
	case domain.BadgeOverdue:
		return "已逾期"
	case domain.BadgeDueToday:
		return "今天到期"
	default:
		return "未到期"
	}
}

// ─── delete / clear ─────────────────────────────────────────────────────────

var deleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one record",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q", args[0])
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

	if err := st.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✅ 已删除 #%d\n", id)
	return nil
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all records",
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	n := len(st.Records())
	if n == 0 {
		fmt.Fprintln(os.Stdout, "暂无账单。")
		return nil
	}
	if !confirm(fmt.Sprintf("确认清空全部 %d 条账单？此操作不可恢复 [y/N]: ", n)) {
		fmt.Fprintln(os.Stdout, "已取消。")
		return nil
	}
	if err := st.ClearAll(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✅ 已清空 %d 条账单。\n", n)
	return nil
}

// confirm prompts on stdout and reads one line from stdin.
func confirm(prompt string) bool {
	fmt.Fprint(os.Stdout, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// ─── profile ────────────────────────────────────────────────────────────────

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the signer profile",
	Long: `Show the profile used to prefill commitment letters. Pass --name or
--idcard to update it.`,
	RunE: runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	name, _ := cmd.Flags().GetString("name")
	idCard, _ := cmd.Flags().GetString("idcard")
	if name != "" || idCard != "" {
		p := st.Profile()
		if name != "" {
			p.Name = name
		}
		if idCard != "" {
			p.IDCard = idCard
		}
		if err := st.SetProfile(p); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "✅ 已保存。")
		return nil
	}

	p := st.Profile()
	if p.Name == "" && p.IDCard == "" {
		fmt.Fprintln(os.Stdout, "未设置。使用 --name 和 --idcard 设置。")
		return nil
	}
	fmt.Fprintf(os.Stdout, "姓名：%s\n身份证号：%s\n", p.Name, p.IDCard)
	return nil
}

// ─── calendar ───────────────────────────────────────────────────────────────

var calendarCmd = &cobra.Command{
	Use:   "calendar ID",
	Short: "Export a record's due date as an ICS calendar event",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendar,
}

func runCalendar(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q", args[0])
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

	rec, err := st.Record(id)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.Export.Dir
	}
	sink := download.DirSink{Dir: outDir, Log: newLogger()}
	filename := ics.Filename(rec)
	if err := sink.Offer(filename, ics.MIMEType, []byte(ics.BuildEvent(rec))); err != nil {
		return fmt.Errorf("export calendar event: %w", err)
	}
	fmt.Fprintf(os.Stdout, "📅 已导出 %s\n", filename)
	return nil
}
