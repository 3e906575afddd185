package audit

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/sgx/internal/domain"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the per-market audit trail. Each record is one line:
//
//	<NAME>|<Y>::<Mo>::<D>::<H>::<Mi>::<S>::<Ns>|<CODE>
//
// Write failures are reported to the diagnostic logger and never returned.
type Log struct {
	name   string
	path   string
	mu     sync.Mutex
	w      io.WriteCloser
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the diagnostic logger for write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// FileName returns the audit file name of a market.
func FileName(market string) string {
	return "log_" + market + ".txt"
}

// Open prepares the audit file of market under dir. The file is rotated
// by lumberjack once it grows past maxSizeMB.
func Open(dir, market string, maxSizeMB int, opts ...Option) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	path := filepath.Join(dir, FileName(market))
	l := newLog(market, opts...)
	l.path = path
	l.w = &lumberjack.Logger{
		Filename: path,
		MaxSize:  maxSizeMB,
	}
	return l, nil
}

// Discard returns a Log that drops every record.
func Discard(market string) *Log {
	l := newLog(market)
	l.w = nopCloser{io.Discard}
	return l
}

// New returns a Log writing to w. Useful for tests and for wiring a market
// to an arbitrary sink.
func New(market string, w io.WriteCloser, opts ...Option) *Log {
	l := newLog(market, opts...)
	l.w = w
	return l
}

func newLog(market string, opts ...Option) *Log {
	l := &Log{
		name:   market,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the file backing the log, or "" for non-file logs.
func (l *Log) Path() string {
	return l.path
}

// Close flushes and closes the underlying writer.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

// MarketInit truncates the log and records the starting inventory.
func (l *Log) MarketInit(eur, usd, yen, yuan float64) {
	code := fmt.Sprintf("\nMARKET_INITIALIZATION\nEUR:%s\nUSD:%s\nYEN:%s\nYUAN:%s\nEND_MARKET_INITIALIZATION",
		FormatExp(eur), FormatExp(usd), FormatExp(yen), FormatExp(yuan))

	l.mu.Lock()
	defer l.mu.Unlock()
	line := l.line(code)
	if l.path == "" {
		l.writeLocked(line)
		return
	}
	// lumberjack only appends; drop its handle and rewrite the file.
	if err := l.w.Close(); err != nil {
		l.warn(err)
	}
	if err := os.WriteFile(l.path, []byte(line), 0o644); err != nil {
		l.warn(err)
	}
}

// LockBuy records a successful buy reservation.
func (l *Log) LockBuy(trader string, kind domain.GoodKind, quantity, bid float64, token string) {
	l.write(fmt.Sprintf("LOCK_BUY-%s-KIND_TO_BUY:%s-QUANTITY_TO_BUY:%s-BID:%s-TOKEN:%s",
		trader, kind, num(quantity), num(bid), token))
}

// LockBuyError records a rejected buy reservation.
func (l *Log) LockBuyError(trader string, kind domain.GoodKind, quantity, bid float64) {
	l.write(fmt.Sprintf("LOCK_BUY-%s-KIND_TO_BUY:%s-QUANTITY_TO_BUY:%s-BID:%s-ERROR",
		trader, kind, num(quantity), num(bid)))
}

// LockSell records a successful sell reservation.
func (l *Log) LockSell(trader string, kind domain.GoodKind, quantity, offer float64, token string) {
	l.write(fmt.Sprintf("LOCK_SELL-%s-KIND_TO_SELL:%s-QUANTITY_TO_SELL:%s-OFFER:%s-TOKEN:%s",
		trader, kind, num(quantity), num(offer), token))
}

// LockSellError records a rejected sell reservation.
func (l *Log) LockSellError(trader string, kind domain.GoodKind, quantity, offer float64) {
	l.write(fmt.Sprintf("LOCK_SELL-%s-KIND_TO_SELL:%s-QUANTITY_TO_SELL:%s-OFFER:%s-ERROR",
		trader, kind, num(quantity), num(offer)))
}

// Buy records a buy redemption.
func (l *Log) Buy(token string, ok bool) {
	l.write(fmt.Sprintf("BUY-TOKEN:%s-%s", token, outcome(ok)))
}

// Sell records a sell redemption.
func (l *Log) Sell(token string, ok bool) {
	l.write(fmt.Sprintf("SELL-TOKEN:%s-%s", token, outcome(ok)))
}

// QuoteBuyError records a rejected buy quote.
func (l *Log) QuoteBuyError(kind domain.GoodKind, quantity float64) {
	l.write(fmt.Sprintf("GET_BUY_PRICE-KIND:%s-QUANTITY:%s-ERROR", kind, num(quantity)))
}

// QuoteSellError records a rejected sell quote.
func (l *Log) QuoteSellError(kind domain.GoodKind, quantity float64) {
	l.write(fmt.Sprintf("GET_SELL_PRICE-KIND:%s-QUANTITY:%s-ERROR", kind, num(quantity)))
}

func (l *Log) write(code string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(l.line(code))
}

func (l *Log) writeLocked(line string) {
	if _, err := io.WriteString(l.w, line); err != nil {
		l.warn(err)
	}
}

func (l *Log) warn(err error) {
	l.logger.Warn("audit write failed",
		slog.String("market", l.name),
		slog.String("error", err.Error()),
	)
}

func (l *Log) line(code string) string {
	t := l.now()
	return fmt.Sprintf("%s|%d::%d::%d::%d::%d::%d::%d|%s\n",
		l.name, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), code)
}

func outcome(ok bool) string {
	if ok {
		return "OK"
	}
	return "ERROR"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatExp renders v in signed shortest scientific notation without
// exponent padding, e.g. 1000 → "+1e3", 0.25 → "+2.5e-1".
func FormatExp(v float64) string {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := "+"
	if strings.HasPrefix(mantissa, "-") {
		sign = "-"
		mantissa = mantissa[1:]
	}
	expSign := ""
	if strings.HasPrefix(exp, "-") {
		expSign = "-"
	}
	exp = strings.TrimLeft(exp, "+-")
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return sign + mantissa + "e" + expSign + exp
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
