// Package payu はホスト型決済ゲートウェイとのハッシュ契約を実装する。
// フィールドの連結順はゲートウェイ側の外部契約で、1つでも順番が違うと
// 検証不能なハッシュになる。ここ以外でハッシュを組み立てないこと。
package payu

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// 送信リクエストに載せるフィールド一式。
type RequestFields struct {
	TxnID       string
	Amount      string // 小数2桁固定の文字列（"1599.00"）
	ProductInfo string
	Firstname   string
	Email       string
	Phone       string
	SuccessURL  string
	FailureURL  string
	UDF1        string
	UDF2        string
	UDF3        string
	UDF4        string
	UDF5        string
}

// ゲートウェイからのコールバック（form POST）の主要フィールド。
type CallbackPayload struct {
	MihpayID    string
	Mode        string
	Status      string
	TxnID       string
	Amount      string
	ProductInfo string
	Firstname   string
	Email       string
	UDF1        string
	UDF2        string
	UDF3        string
	UDF4        string
	UDF5        string
	Hash        string
}

// 金額は常に小数2桁の文字列で渡す（内部では整数の通貨単位で持つ）。
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%d.00", amount)
}

// 送信ハッシュ:
// sha512(key|txnid|amount|productinfo|firstname|email|udf1|...|udf5||||||salt)
// udf5の後ろの空フィールド5個も契約の一部。
func RequestHash(key string, salt string, f RequestFields) string {
	parts := []string{
		key,
		f.TxnID,
		f.Amount,
		f.ProductInfo,
		f.Firstname,
		f.Email,
		f.UDF1, f.UDF2, f.UDF3, f.UDF4, f.UDF5,
		"", "", "", "", "",
		salt,
	}
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// 受信ハッシュ: 送信時の並びを逆順にし、statusが先頭側・keyが末尾に来る。
// sha512(salt|status||||||udf5|...|udf1|email|firstname|productinfo|amount|txnid|key)
func ResponseHash(key string, salt string, p CallbackPayload) string {
	parts := []string{
		salt,
		p.Status,
		"", "", "", "", "",
		p.UDF5, p.UDF4, p.UDF3, p.UDF2, p.UDF1,
		p.Email,
		p.Firstname,
		p.ProductInfo,
		p.Amount,
		p.TxnID,
		key,
	}
	sum := sha512.Sum512([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// コールバックの真正性確認。大文字小文字は区別せず、比較は一定時間で行う。
// このエンドポイントは他に認証が無いので、失敗は常に拒否する。
func VerifyResponseHash(key string, salt string, p CallbackPayload) bool {
	if p.Hash == "" {
		return false
	}
	want := ResponseHash(key, salt, p)
	got := strings.ToLower(p.Hash)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// ブラウザが自動送信するformのフィールド一式を組み立てる。
func FormFields(key string, f RequestFields, hash string) map[string]string {
	return map[string]string{
		"key":         key,
		"txnid":       f.TxnID,
		"amount":      f.Amount,
		"productinfo": f.ProductInfo,
		"firstname":   f.Firstname,
		"email":       f.Email,
		"phone":       f.Phone,
		"surl":        f.SuccessURL,
		"furl":        f.FailureURL,
		"udf1":        f.UDF1,
		"udf2":        f.UDF2,
		"udf3":        f.UDF3,
		"udf4":        f.UDF4,
		"udf5":        f.UDF5,
		"hash":        hash,
	}
}
