package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// PDFPrinter 把完整 HTML 打印成 PDF
type PDFPrinter interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// RodConfig 无头浏览器配置
type RodConfig struct {
	BrowserBin string
	NoSandbox  bool
	Timeout    time.Duration
	// PageSize A4 或 Letter，默认 A4
	PageSize string
}

// paperSizes 纸张宽高，单位英寸
var paperSizes = map[string][2]float64{
	"a4":     {8.27, 11.69},
	"letter": {8.5, 11},
	"legal":  {8.5, 14},
}

func paperSize(name string) (float64, float64) {
	if size, ok := paperSizes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return size[0], size[1]
	}
	a4 := paperSizes["a4"]
	return a4[0], a4[1]
}

// browserProcess 已启动的浏览器进程，*launcher.Launcher 满足该接口
type browserProcess interface {
	Launch() (string, error)
	Kill()
}

// RodPrinter 基于 go-rod 的 PDFPrinter，浏览器在首次使用时启动并复用
type RodPrinter struct {
	cfg     RodConfig
	mu      sync.Mutex
	browser *rod.Browser
	process browserProcess

	newProcess func() browserProcess
	connect    func(controlURL string) (*rod.Browser, error)
}

// NewRodPrinter 创建打印器
func NewRodPrinter(cfg RodConfig) *RodPrinter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	p := &RodPrinter{cfg: cfg, connect: connectBrowser}
	p.newProcess = func() browserProcess {
		l := launcher.New().Headless(true).NoSandbox(p.cfg.NoSandbox)
		if p.cfg.BrowserBin != "" {
			l = l.Bin(p.cfg.BrowserBin)
		}
		return l
	}
	return p
}

func connectBrowser(controlURL string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}

// ensureBrowser 连接失败时结束刚启动的进程，下次调用重新启动
func (p *RodPrinter) ensureBrowser() (*rod.Browser, error) {
	if p.browser != nil {
		return p.browser, nil
	}

	proc := p.newProcess()
	controlURL, err := proc.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser, err := p.connect(controlURL)
	if err != nil {
		proc.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	p.browser = browser
	p.process = proc
	return browser, nil
}

// PrintPDF 按配置的纸张打印 PDF，页脚带页码；同一时刻只打印一份
func (p *RodPrinter) PrintPDF(ctx context.Context, html string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	browser, err := p.ensureBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx).Timeout(p.cfg.Timeout)

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	width, height := paperSize(p.cfg.PageSize)
	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:          gson.Num(width),
		PaperHeight:         gson.Num(height),
		MarginTop:           gson.Num(0.8),
		MarginBottom:        gson.Num(0.8),
		MarginLeft:          gson.Num(0.7),
		MarginRight:         gson.Num(0.7),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
		HeaderTemplate:      headerTemplate,
		FooterTemplate:      footerTemplate,
	})
	if err != nil {
		return nil, fmt.Errorf("print pdf: %w", err)
	}
	return io.ReadAll(stream)
}

// Close 关闭浏览器并结束进程
func (p *RodPrinter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browser == nil {
		return nil
	}
	err := p.browser.Close()
	p.process.Kill()
	p.browser = nil
	p.process = nil
	return err
}
