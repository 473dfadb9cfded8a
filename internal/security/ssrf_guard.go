// Package security は入力サニタイズとSSRF防止を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService は外部URL取得時のSSRF防止機能を定義する。
// コンテンツサンプルURLの検証とフィード取得に使用される。
type SSRFGuardService interface {
	// NewSafeClient はSSRF防止付きのHTTPクライアントを生成する。
	// safeurlがDialerレベルでDNS解決後のIPを検証するため、
	// 内部ネットワークへ解決されるホスト名も接続前に遮断される。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client

	// ValidateURL はDNS解決を伴わない静的検証を行う。
	// スキーム・ホスト・IPアドレスを調べ、危険なURLはエラーになる。
	ValidateURL(rawURL string) error
}

// allowedSchemes は取得を許可するURLスキーム。
var allowedSchemes = []string{"http", "https"}

// denyNetworks はValidateURLが拒否するアドレス帯。
// RFC 1918のプライベート帯、ループバック、リンクローカル
// （クラウドメタデータIP 169.254.169.254 を含む）、カレントネットワーク、
// および対応するIPv6帯をカバーする。
var denyNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

// denyHostnames はValidateURLが拒否するホスト名。
var denyHostnames = []string{"localhost"}

func mustParseCIDRs(cidrs ...string) []net.IPNet {
	nets := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %s: %v", cidr, err))
		}
		nets = append(nets, *network)
	}
	return nets
}

// ssrfGuard はSSRFGuardServiceの実装。
type ssrfGuard struct{}

// NewSSRFGuard はSSRFGuardServiceを生成する。
func NewSSRFGuard() *ssrfGuard {
	return &ssrfGuard{}
}

// NewSafeClient はSSRF防止付きのHTTPクライアントを生成する。
// 接続先検証はsafeurlのDialerフックが担うため、DNS再バインディング
// 攻撃にもこのクライアント経由の取得は耐える。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL はURLを保存前に静的検証する。HTTPリクエストは送信しない。
// 解決後IPの検証はNewSafeClientのクライアント側で行われる。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !schemeAllowed(parsed.Scheme) {
		return fmt.Errorf("disallowed scheme: %s (allowed: %v)", strings.ToLower(parsed.Scheme), allowedSchemes)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		for _, network := range denyNetworks {
			if network.Contains(ip) {
				return fmt.Errorf("blocked IP address: %s", ip.String())
			}
		}
		return nil
	}

	for _, blocked := range denyHostnames {
		if strings.EqualFold(host, blocked) {
			return fmt.Errorf("blocked host: %s", host)
		}
	}

	return nil
}

func schemeAllowed(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}
