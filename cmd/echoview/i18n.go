// Package main provides localization for the echoview CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定",
		"Decoding":      "デコード",
		"Playback":      "再生",
		"Debug":         "デバッグ",
		"Logging":       "ログ",

		// Root command
		"Play echocardiography videos frame by frame": "心エコー動画をフレーム単位で再生",
		"echoview version %s":                         "echoview バージョン %s",

		// Global flags
		"Path to a YAML configuration file":                          "YAML設定ファイルのパス",
		"Path to the ffmpeg executable used for H.264":               "H.264のデコードに使うffmpegのパス",
		"Frame position at which playback wraps (0 = end of stream)": "再生を先頭に戻すフレーム位置 (0 = ストリームの終端)",
		"Save decoded frames and probe data":                         "デコードしたフレームと解析結果を保存",
		"Directory for debug output":                                 "デバッグ出力先ディレクトリ",
		"Log level (debug, info, warn, error)":                       "ログレベル (debug, info, warn, error)",
		"Suppress all log output":                                    "ログ出力をすべて抑制",

		// Play command
		"Open the viewer window; drop files on it to play them": "ビューアを開く (ファイルをドロップすると再生)",
		"Acquisition view passed to the conversion command":     "変換コマンドに渡す断面 (A2Cなど)",
		"Initial window width":                                  "ウィンドウの初期幅",
		"Initial window height":                                 "ウィンドウの初期高さ",

		// Export command
		"Play a file offscreen and save every tick as PNG":  "画面を使わずに再生し、各ティックをPNGで保存",
		"Directory for exported frames":                     "書き出し先ディレクトリ",
		"Number of UI ticks to run":                         "実行するUIティック数",
		"Simulated UI frame rate":                           "想定するUIのフレームレート",
		"Panel width":                                       "パネルの幅",
		"Panel height":                                      "パネルの高さ",
		"Draw frame number and position on each tick":       "各ティックにフレーム番号と位置を描画",
		"No frame could be decoded":                         "デコードできたフレームがありません",
		"Codec for --video (h264 or av1)":                   "--video のコーデック (h264 または av1)",
		"Unknown video codec %s":                            "不明な動画コーデック %s",
		"Also encode the ticks into an H.264 MP4 file":      "各ティックをH.264のMP4ファイルにも書き出す",
		"H.264 quality for --video (0-51, lower is better)": "--video のH.264品質 (0-51, 小さいほど高画質)",

		// Probe command
		"Describe the streams of a file and whether it can be played": "ファイルのストリームと再生可否を表示",
		"Write the report to a file instead of stdout":                "レポートを標準出力ではなくファイルに書き出す",
		"Print the report as JSON":                                    "レポートをJSONで出力",

		// Convert command
		"Run the configured conversion command on a file": "設定された変換コマンドをファイルに実行",

		// Errors
		"A video file argument is required": "動画ファイルを指定してください",
		"A file argument is required":       "ファイルを指定してください",
	})
}
