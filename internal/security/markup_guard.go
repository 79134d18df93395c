// Package security はアプリケーションのセキュリティ機能を提供する。
//
// MarkupGuard はタスクのタイトルと説明にHTMLマークアップが含まれるかを判定する。
// 入力は書き換えず、判定結果だけを返す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupGuard はユーザー入力のマークアップ検出のインターフェースを定義する。
type MarkupGuard interface {
	// ContainsMarkup はinputにタグやコメントが含まれる場合にtrueを返す。
	// 文字実体（&amp; など）や単独の記号はマークアップとして扱わない。
	ContainsMarkup(input string) bool
}

// markupGuard はMarkupGuardの実装。
// bluemonday.Policyはゴルーチンセーフなので共有して使う。
type markupGuard struct {
	policy *bluemonday.Policy
}

// NewMarkupGuard はMarkupGuardの新しいインスタンスを生成する。
func NewMarkupGuard() MarkupGuard {
	return &markupGuard{
		policy: bluemonday.StrictPolicy(),
	}
}

// textNormalizer はHTMLトークナイザーがテキストに適用する改行の正規化を再現する。
var textNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// ContainsMarkup はStrictPolicyの出力とテキストとしての正規化結果を比較する。
// テキストだけの入力はどちらも同じエスケープ済み文字列になり、
// タグやコメントがあるとStrictPolicyがそれを取り除くため一致しなくなる。
func (g *markupGuard) ContainsMarkup(input string) bool {
	if input == "" {
		return false
	}
	asText := html.EscapeString(html.UnescapeString(textNormalizer.Replace(input)))
	return g.policy.Sanitize(input) != asText
}
