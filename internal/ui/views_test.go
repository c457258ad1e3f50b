package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/config"
	"github.com/icplatform/dashboard/internal/dashboard"
)

func parse(t *testing.T, n *html.Node) *goquery.Document {
	t.Helper()
	s, err := RenderString(n)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func sampleState() dashboard.State {
	configs := []backend.Config{
		{ID: 1, Name: "<script>alert(1)</script>", LoginURL: "http://a", DevType: "csmp"},
		{ID: 2, Name: "b", LoginURL: "http://b", DevType: "xc", SSHHost: "10.0.0.2"},
	}
	fetched := map[int]dashboard.Fetched{
		1: {At: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), Data: []backend.Component{
			{ID: "vm-1", Name: "vnc1", Status: "running"},
			{ID: "svc", Name: "svc", Status: "stopped", CanExecute: true},
		}},
	}
	keys := map[int]string{1: "k"}
	return dashboard.State{
		Title:       "IC",
		Flow:        config.FlowSession,
		View:        dashboard.ViewDevices,
		Configs:     configs,
		Devices:     dashboard.DeriveDevices(config.FlowSession, configs, keys, fetched),
		SessionKeys: keys,
		Fetched:     fetched,
		Expanded:    map[int]bool{1: true},
	}
}

func TestDevicesViewRows(t *testing.T) {
	t.Parallel()
	doc := parse(t, DevicesView(sampleState()))

	rows := doc.Find("#devices-table-body > tr[data-device-id]")
	if rows.Length() != 2 {
		t.Fatalf("device rows = %d", rows.Length())
	}

	first := doc.Find(`tr[data-device-id="1"]`)
	if got := first.Find(".device-name").Text(); got != "<script>alert(1)</script>" {
		t.Errorf("name text = %q", got)
	}
	if doc.Find("script").Length() != 0 {
		t.Error("device name rendered as markup")
	}
	btn := first.Find(".expand-btn")
	if !btn.HasClass("expanded") || btn.Find("i.fa-chevron-down").Length() != 1 {
		t.Errorf("expanded button wrong: %s", attrs(btn))
	}
	if action, _ := btn.Attr("data-action"); action != dashboard.ActionToggleDetails {
		t.Errorf("expand action = %q", action)
	}
	if id, _ := btn.Attr("data-arg-id"); id != "1" {
		t.Errorf("expand id = %q", id)
	}
	if !doc.Find("#details-1").HasClass("show") {
		t.Error("details row 1 not shown")
	}
	if first.Find(".device-status-badge.online").Text() != "在线" {
		t.Error("online badge missing")
	}
	if first.Find(".device-status-badge.type-csmp").Text() != "CSMP" {
		t.Error("type badge missing")
	}

	second := doc.Find(`tr[data-device-id="2"]`)
	if second.Find(".expand-btn").HasClass("expanded") || second.Find("i.fa-chevron-right").Length() != 1 {
		t.Error("collapsed button wrong")
	}
	if doc.Find("#details-2").HasClass("show") {
		t.Error("details row 2 shown")
	}
	if second.Find(".device-status-badge.warning").Text() != "需登录" {
		t.Error("warning badge missing")
	}
	if second.Find(`[data-action="login-device"]`).Length() != 1 {
		t.Error("login button missing on warning row")
	}
	if got := doc.Find("#details-content-2 .muted").Text(); got != "点击刷新更新组件信息" {
		t.Errorf("placeholder = %q", got)
	}
}

func TestDeviceDetailsComponents(t *testing.T) {
	t.Parallel()
	doc := parse(t, DevicesView(sampleState()))

	vnc := doc.Find(`#details-1 [data-action="open-vnc"]`)
	if vnc.Length() != 1 {
		t.Fatalf("vnc buttons = %d, want one for the running item", vnc.Length())
	}
	if item, _ := vnc.Attr("data-arg-item"); item != "vnc1" {
		t.Errorf("vnc item = %q", item)
	}

	form := doc.Find(`#details-1 form[data-action="execute"]`)
	if form.Length() != 1 {
		t.Fatalf("execute forms = %d", form.Length())
	}
	if on, _ := form.Attr("data-on"); on != "submit" {
		t.Errorf("execute form event = %q", on)
	}
	if item, _ := form.Attr("data-arg-item"); item != "svc" {
		t.Errorf("execute item = %q", item)
	}
	if form.Find(`input[name="command"]`).Length() != 1 {
		t.Error("command input missing")
	}
	if got := doc.Find("#details-1 .component-status.running").Text(); got != "运行中" {
		t.Errorf("running label = %q", got)
	}
}

func TestDevicesViewEmpty(t *testing.T) {
	t.Parallel()
	doc := parse(t, DevicesView(dashboard.State{}))
	if got := doc.Find("#devices-table-body td.empty").Text(); got != "暂无设备配置" {
		t.Errorf("empty text = %q", got)
	}
}

func TestConfigsView(t *testing.T) {
	t.Parallel()
	s := sampleState()
	s.View = dashboard.ViewConfigs
	s.SelectedID = 2
	doc := parse(t, View(s))

	items := doc.Find(".config-item")
	if items.Length() != 2 {
		t.Fatalf("items = %d", items.Length())
	}
	selected := doc.Find(".config-item.selected")
	if id, _ := selected.Attr("data-config-id"); selected.Length() != 1 || id != "2" {
		t.Errorf("selected = %s", attrs(selected))
	}
	del := doc.Find(`.config-item[data-config-id="1"] [data-action="delete-config"]`)
	if prompt, _ := del.Attr("data-confirm"); prompt != dashboard.DeleteConfirmPrompt {
		t.Errorf("delete prompt = %q", prompt)
	}
	if doc.Find(`[data-action="edit-config"][data-arg-id="2"]`).Length() != 1 {
		t.Error("edit button missing")
	}

	empty := parse(t, ConfigsView(dashboard.State{}))
	if got := empty.Find("#config-list .muted").Text(); got != "暂无配置" {
		t.Errorf("empty text = %q", got)
	}
}

func TestConfigModal(t *testing.T) {
	t.Parallel()
	closed := parse(t, ConfigModal(nil))
	if m := closed.Find("#modal"); m.Length() != 1 || m.HasClass("show") {
		t.Error("closed modal should be an empty hidden container")
	}

	m := &dashboard.ConfigModal{
		Title:  "编辑配置",
		EditID: 3,
		Values: dashboard.Form{"name": `a"b`, "login_url": "bad url", "dev_type": "xc"},
		Error:  &dashboard.ValidationError{Field: "login_url", Message: "登录URL格式不正确"},
	}
	doc := parse(t, ConfigModal(m))
	if !doc.Find("#modal").HasClass("show") {
		t.Error("open modal not shown")
	}
	if v, _ := doc.Find(`input[name="name"]`).Attr("value"); v != `a"b` {
		t.Errorf("name value = %q", v)
	}
	if !doc.Find(`input[name="login_url"]`).HasClass("invalid") {
		t.Error("invalid field not marked")
	}
	if got := doc.Find(".form-error").Text(); got != "登录URL格式不正确" {
		t.Errorf("error = %q", got)
	}
	if v, _ := doc.Find(`input[name="id"]`).Attr("value"); v != "3" {
		t.Errorf("hidden id = %q", v)
	}
	if _, ok := doc.Find(`select[name="dev_type"] option[value="xc"]`).Attr("selected"); !ok {
		t.Error("dev type not selected")
	}
	test := doc.Find(`[data-action="test-ssh"]`)
	if c, _ := test.Attr("data-collect"); c != "form" {
		t.Error("test-ssh does not collect the form")
	}
	if on, _ := doc.Find("form#config-form").Attr("data-action"); on != dashboard.ActionSaveConfig {
		t.Errorf("form action = %q", on)
	}
}

func TestLogPanelAndLoading(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 1, 1, 13, 4, 5, 0, time.UTC)
	doc := parse(t, LogPanel([]dashboard.LogEntry{
		{Timestamp: at, Level: dashboard.LevelSuccess, Message: "line1\nline2"},
		{Timestamp: at, Level: dashboard.LevelError, Message: "<b>x</b>"},
	}))
	entries := doc.Find(".log-entry")
	if entries.Length() != 2 {
		t.Fatalf("entries = %d", entries.Length())
	}
	if !entries.First().HasClass("log-success") || entries.First().Find(".log-time").Text() != "[13:04:05]" {
		t.Errorf("first entry = %s", attrs(entries.First()))
	}
	if entries.Last().Find(".log-message").Text() != "<b>x</b>" || doc.Find("b").Length() != 0 {
		t.Error("log message not escaped")
	}

	if parse(t, Loading()).Find("#loading").HasClass("show") {
		t.Error("overlay rendered visible")
	}
}

func TestPageScriptOwnsLoadingOverlay(t *testing.T) {
	t.Parallel()
	for _, want := range []string{
		"showLoading();",
		"getElementById('loading')",
		"classList.add('show')",
		"classList.remove('show')",
	} {
		if !strings.Contains(pageJS, want) {
			t.Errorf("page script missing %q", want)
		}
	}
	if strings.Index(pageJS, "showLoading();") > strings.Index(pageJS, "return fetch('/ui/actions/'") {
		t.Error("overlay is not raised before the action request")
	}
}

func TestToastAndMenu(t *testing.T) {
	t.Parallel()
	doc := parse(t, Toast(dashboard.Toast{ID: "t1", Kind: dashboard.ToastWarning, Message: "注意", Icon: "exclamation-triangle", DurationMS: 3000}))
	n := doc.Find(".notification")
	if !n.HasClass("notification-warning") || n.Find("i.fa-exclamation-triangle").Length() != 1 {
		t.Errorf("toast = %s", attrs(n))
	}
	if style, _ := n.Attr("style"); !strings.Contains(style, "#ffc107") || !strings.Contains(style, "#212529") {
		t.Errorf("style = %q", style)
	}

	menu := parse(t, Menu(dashboard.ViewConfigs))
	active := menu.Find(".menu-item.active")
	if v, _ := active.Attr("data-arg-view"); v != "configs" {
		t.Errorf("active view = %q", v)
	}
}

func TestPageAndFragments(t *testing.T) {
	t.Parallel()
	s := sampleState()
	s.Backend = backend.ConnectionStatus{Connected: true}
	doc := parse(t, Page(s, "tab-1"))

	if doc.Find("title").Text() != "IC" {
		t.Error("title missing")
	}
	for _, id := range []string{RegionStatus, RegionMenu, RegionView, RegionModal, RegionLog, RegionLoading, "toasts"} {
		if doc.Find("#"+id).Length() != 1 {
			t.Errorf("region #%s missing", id)
		}
	}
	if tab, _ := doc.Find(`meta[name="icdash-tab"]`).Attr("content"); tab != "tab-1" {
		t.Errorf("tab meta = %q", tab)
	}
	if doc.Find("[onclick]").Length() != 0 {
		t.Error("inline handlers rendered")
	}

	frags, err := Fragments(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(frags) != 5 {
		t.Errorf("fragments = %d", len(frags))
	}
	if _, ok := frags[RegionLoading]; ok {
		t.Error("loading overlay is owned by the page script")
	}
	if !strings.Contains(frags[RegionStatus], "后端已连接") {
		t.Errorf("status fragment = %q", frags[RegionStatus])
	}
}

func attrs(sel *goquery.Selection) string {
	out, _ := goquery.OuterHtml(sel)
	return out
}
