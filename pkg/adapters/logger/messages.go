package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Command level messages
		"Interrupted, shutting down...":       "中断されました。シャットダウン中...",
		"Exported %d ticks of %s (%d failed)": "%[2]s の %[1]d ティックを書き出しました (失敗 %[3]d)",
		"Failed to save probe data: %v":       "解析結果の保存に失敗しました: %v",
		"Summary saved to %s":                 "サマリーを %s に保存しました",
		"Video saved to %s":                   "動画を %s に保存しました",

		// Playback driver
		"Playing %s (%s %dx%d, %d frames at %.2f fps)": "%s を再生中 (%s %dx%d, %d フレーム, %.2f fps)",
		"Playback stopped":                        "再生を停止しました",
		"Failed to open %s: %v":                   "%s を開けませんでした: %v",
		"No video stream in %s":                   "%s に動画ストリームがありません",
		"No decoder for codec %s in %s":           "コーデック %s のデコーダーがありません (%s)",
		"Failed to decode frame %d of %s: %v":     "フレーム %d のデコードに失敗しました (%s): %v",
		"Failed to save debug frame %d: %v":       "デバッグフレーム %d の保存に失敗しました: %v",
		"Failed to upload frame %d: %v":           "フレーム %d の転送に失敗しました: %v",
		"Frame %d shown at position %.2f (%dx%d)": "フレーム %d を位置 %.2f で表示 (%dx%d)",

		// Frame decoder
		"Error sending packet for decoding: %v":           "デコード用パケットの送信に失敗しました: %v",
		"Stream ended after %d frames, wanted ordinal %d": "%d フレームでストリームが終了しました (要求 %d)",

		// Conversion
		"Converting %s (%s) as job %s": "%s を変換中 (%s, ジョブ %s)",
		"Running %s":                   "%s を実行中",
		"Removing stale output %s":     "古い出力 %s を削除します",
		"Converted %s to %s in %s":     "%s を %s に変換しました (%s)",
		"Conversion of %s failed: %v":  "%s の変換に失敗しました: %v",
		"Dropping stale selection %s":  "古い選択 %s を破棄します",
	})
}
