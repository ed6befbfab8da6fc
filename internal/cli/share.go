package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fankeji/debtbook/internal/app/compose"
	"github.com/fankeji/debtbook/internal/app/render"
	"github.com/fankeji/debtbook/internal/domain"
	"github.com/fankeji/debtbook/internal/infra/download"
)

func init() {
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(renderCmd)

	composeCmd.Flags().Bool("rewrite", false, "Rewrite the reminder with AI (requires an API key)")
	composeCmd.Flags().String("audience", string(domain.AudienceFriend), "Who the message is for: 朋友, 同事, 同学, 亲属, 领导 or 下属")
	composeCmd.Flags().String("style", string(domain.StyleNormal), "Message style: 正常, 幽默, 绿茶, 古风 or 发疯文学")

	renderCmd.Flags().StringP("signature", "s", "", "PNG signature file to composite onto the letter")
	renderCmd.Flags().StringP("out", "o", "", "Output directory (default from config)")
}

// ─── compose ────────────────────────────────────────────────────────────────

var composeCmd = &cobra.Command{
	Use:   "compose ID",
	Short: "Compose a repayment message for a record",
	Long: `Compose the message for a record: a payment reminder for money owed
to you, or a commitment letter for money you owe. With --rewrite the
reminder is rephrased by the AI for the given audience and style.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompose,
}

func runCompose(cmd *cobra.Command, args []string) error {
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

	_, composer := newComposer(cfg, newLogger())
	sess := compose.NewSession(composer, rec, st.Profile())

	rewrite, _ := cmd.Flags().GetBool("rewrite")
	if rewrite && rec.Type != domain.Outgoing {
		if composer == nil {
			return fmt.Errorf("AI 改写需要 API key：请设置 %s 环境变量", cfg.Chat.APIKeyEnv)
		}
		audience, _ := cmd.Flags().GetString("audience")
		style, _ := cmd.Flags().GetString("style")

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Chat.Timeout())
		defer cancel()
		if _, err := sess.Rewrite(ctx, domain.Audience(audience), domain.Style(style)); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  AI 改写失败（%v），使用模板消息。\n", err)
		}
	}
	fmt.Fprintln(os.Stdout, sess.Message(time.Now()))
	return nil
}

// ─── render ─────────────────────────────────────────────────────────────────

var renderCmd = &cobra.Command{
	Use:   "render ID",
	Short: "Render a commitment letter as a PNG image",
	Long: `Render the commitment letter for an outgoing record as a shareable
PNG. A signature image, when provided, is composited into the
signature area.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
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

	var sig []byte
	if sigPath, _ := cmd.Flags().GetString("signature"); sigPath != "" {
		sig, err = os.ReadFile(sigPath)
		if err != nil {
			return fmt.Errorf("read signature: %w", err)
		}
	}

	renderer, err := render.New(cfg.Render.FontPath)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	text := compose.NewSession(nil, rec, st.Profile()).Message(time.Now())
	result, err := renderer.Render(cmd.Context(), rec, text, sig)
	if err != nil {
		return fmt.Errorf("render letter: %w", err)
	}

	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.Export.Dir
	}
	sink := download.DirSink{Dir: outDir, Log: newLogger()}
	if err := sink.Offer(result.Filename, render.MIMEType, result.PNG); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	fmt.Fprintf(os.Stdout, "✅ 已生成 %s（%d×%d）\n", result.Filename, result.Width, result.Height)
	if len(sig) > 0 && !result.SignatureAttached {
		fmt.Fprintln(os.Stdout, "⚠️  签名未能解码，图片不含签名。")
	}
	return nil
}
