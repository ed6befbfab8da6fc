package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fankeji/debtbook/internal/app/signature"
	"github.com/fankeji/debtbook/internal/infra/download"
)

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringP("out", "o", "", "Output directory (default from config)")
}

// strokeFile is the recorded-stroke layout the sign command replays:
// an optional client-space origin plus one point list per stroke.
type strokeFile struct {
	Origin  *signature.Point    `json:"origin,omitempty"`
	Strokes [][]signature.Point `json:"strokes"`
}

var signCmd = &cobra.Command{
	Use:   "sign STROKES_FILE",
	Short: "Capture a handwritten signature from recorded strokes",
	Long: `Replay a JSON file of recorded pointer strokes through the signature
pad and save the captured signature as a PNG. The file holds an
optional origin and a list of strokes, each a list of {x, y} points.
Pass the saved image to 'debtbook render --signature'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read strokes file: %w", err)
	}
	var file strokeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse strokes file: %w", err)
	}
	if len(file.Strokes) == 0 {
		return fmt.Errorf("strokes file contains no strokes")
	}

	pad := signature.NewPad()
	if file.Origin != nil {
		pad.SetOrigin(file.Origin.X, file.Origin.Y)
	}
	for _, stroke := range file.Strokes {
		if len(stroke) == 0 {
			continue
		}
		pad.Begin(stroke[0])
		for _, pt := range stroke[1:] {
			pad.Extend(pt)
		}
		if _, err := pad.End(); err != nil {
			return fmt.Errorf("capture signature: %w", err)
		}
	}
	snap, ok := pad.Signature()
	if !ok {
		return fmt.Errorf("strokes produced no signature")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = cfg.Export.Dir
	}
	sink := download.DirSink{Dir: outDir, Log: newLogger()}
	if err := sink.Offer("signature.png", "image/png", snap); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	fmt.Fprintf(os.Stdout, "✅ 已保存签名到 %s\n", outDir)
	fmt.Fprintln(os.Stdout, "   使用 debtbook render ID --signature <路径> 生成带签名的承诺书。")
	return nil
}
