// Package layers はホスト側で動く前処理レイヤを提供する。
//
//   - StringLookup: 文字列を連続した整数インデックスに写像する語彙
//   - MultiCategoryEncoding: 構造化データの列ごとのエンコーディング
//   - TextVectorizationWithTokenizer: BERT 形式の (batch, 3, L) 入力への変換
//
// どのレイヤも学習可能なパラメータを持たず、モデル計算の前に実行される。
package layers
