package ui

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/icplatform/dashboard/internal/backend"
	"github.com/icplatform/dashboard/internal/dashboard"
)

// Region ids. Each region is re-rendered as a whole and swapped by id.
const (
	RegionStatus  = "backend-status"
	RegionMenu    = "menu"
	RegionView    = "view"
	RegionModal   = "modal"
	RegionLog     = "log-panel"
	RegionLoading = "loading"
)

const deviceColumns = 8

func idArgs(id int, kv ...string) map[string]string {
	args := map[string]string{"id": strconv.Itoa(id)}
	for i := 0; i+1 < len(kv); i += 2 {
		args[kv[i]] = kv[i+1]
	}
	return args
}

func muted(text string) *html.Node {
	return El("p", Class("muted"), Text(text))
}

// Regions renders every swappable region of the page.
func Regions(s dashboard.State) map[string]*html.Node {
	return map[string]*html.Node{
		RegionStatus: BackendStatus(s.Backend),
		RegionMenu:   Menu(s.View),
		RegionView:   View(s),
		RegionModal:  ConfigModal(s.Modal),
		RegionLog:    LogPanel(s.Log),
	}
}

// Fragments renders Regions to HTML strings keyed by region id.
func Fragments(s dashboard.State) (map[string]string, error) {
	out := make(map[string]string)
	for id, n := range Regions(s) {
		str, err := RenderString(n)
		if err != nil {
			return nil, err
		}
		out[id] = str
	}
	return out, nil
}

// BackendStatus is the header indicator of backend reachability.
func BackendStatus(st backend.ConnectionStatus) *html.Node {
	dot, label := "dot-gray", "后端未连接"
	switch {
	case st.Connected:
		dot, label = "dot-green", "后端已连接"
	case st.LastError != "":
		dot, label = "dot-red", "后端不可用: "+st.LastError
	}
	return El("span", ID(RegionStatus), Class("backend-status"), Children(
		El("span", Class("hdr-dot", dot)),
		El("span", Text(label)),
	))
}

var menuItems = []struct {
	view  dashboard.View
	icon  string
	label string
}{
	{dashboard.ViewDevices, "server", "设备管理"},
	{dashboard.ViewConfigs, "cog", "配置管理"},
}

// Menu is the view switcher.
func Menu(active dashboard.View) *html.Node {
	ul := El("ul")
	for _, item := range menuItems {
		ul.AppendChild(El("li",
			Class("menu-item", activeClass(item.view == active)),
			On("click", dashboard.ActionSwitchView, map[string]string{"view": string(item.view)}),
			Children(Icon(item.icon), El("span", Text(item.label))),
		))
	}
	return El("nav", ID(RegionMenu), Class("menu"), Children(ul))
}

func activeClass(on bool) string {
	if on {
		return "active"
	}
	return ""
}

// View renders the active panel.
func View(s dashboard.State) *html.Node {
	if s.View == dashboard.ViewConfigs {
		return ConfigsView(s)
	}
	return DevicesView(s)
}

// DevicesView is the device table with one expandable details row per
// device.
func DevicesView(s dashboard.State) *html.Node {
	head := El("tr")
	for _, h := range []string{"设备名称", "类型", "状态", "组件数", "最后更新", "操作", "WebShell", "跳转"} {
		head.AppendChild(El("th", Text(h)))
	}

	body := El("tbody", ID("devices-table-body"))
	if len(s.Devices) == 0 {
		body.AppendChild(El("tr", Children(
			El("td", Attr("colspan", strconv.Itoa(deviceColumns)), Class("empty"), Text("暂无设备配置")),
		)))
	}
	for _, d := range s.Devices {
		expanded := s.Expanded[d.ID]
		body.AppendChild(deviceRow(d, expanded))
		body.AppendChild(detailsRow(d, expanded))
	}

	return El("section", ID(RegionView), Class("panel"), Attr("data-view", string(dashboard.ViewDevices)), Children(
		El("div", Class("panel-header"), Children(
			El("h2", Children(Icon("server")), Text(" 设备列表")),
			El("button", Class("btn", "btn-primary"),
				On("click", dashboard.ActionLoadDevices, nil),
				Children(Icon("sync-alt")), Text(" 全部刷新")),
		)),
		El("table", Class("devices-table"), Children(
			El("thead", Children(head)),
			body,
		)),
	))
}

func deviceRow(d dashboard.Device, expanded bool) *html.Node {
	chevron := "chevron-right"
	if expanded {
		chevron = "chevron-down"
	}

	actions := El("div", Class("device-actions"), Children(
		El("button", Class("btn", "btn-success"),
			On("click", dashboard.ActionRefreshDevice, idArgs(d.ID)),
			Children(Icon("sync-alt")), Text(" 刷新")),
	))
	if d.Status == dashboard.StatusWarning {
		actions.AppendChild(El("button", Class("btn", "btn-warning"),
			On("click", dashboard.ActionLoginDevice, idArgs(d.ID)),
			Children(Icon("sign-in-alt")), Text(" 登录")))
	}

	return El("tr", Attr("data-device-id", strconv.Itoa(d.ID)), Children(
		El("td", Children(
			El("div", Class("device-name-container"), Children(
				El("button", Class("expand-btn", expandedClass(expanded)),
					On("click", dashboard.ActionToggleDetails, idArgs(d.ID)),
					Children(Icon(chevron))),
				El("div", Class("device-name"), Text(d.Name)),
			)),
		)),
		El("td", Children(
			El("span", Class("device-status-badge", "type-"+typeClass(d.Type)), Text(dashboard.DeviceTypeLabel(d.Type))),
		)),
		El("td", Children(
			El("span", Class("device-status-badge", string(d.Status)), Text(d.Status.Label())),
		)),
		El("td", Text(strconv.Itoa(d.ItemCount))),
		El("td", Text(d.LastUpdate)),
		El("td", Children(actions)),
		El("td", Children(
			El("button", Class("btn", "btn-outline", "webshell-btn"), Attr("title", "打开WebShell"),
				On("click", dashboard.ActionOpenWebShell, idArgs(d.ID)),
				Children(Icon("terminal")), Text(" WebShell")),
		)),
		El("td", Children(
			El("button", Class("btn", "btn-info"), Attr("title", "跳转到原始登录页面"),
				On("click", dashboard.ActionJumpToLogin, idArgs(d.ID)),
				Children(Icon("external-link-alt")), Text(" 跳转")),
		)),
	))
}

func expandedClass(on bool) string {
	if on {
		return "expanded"
	}
	return ""
}

func typeClass(t string) string {
	if t == "" {
		return "unknown"
	}
	return t
}

func detailsRow(d dashboard.Device, expanded bool) *html.Node {
	show := ""
	if expanded {
		show = "show"
	}
	id := strconv.Itoa(d.ID)
	return El("tr", ID("details-"+id), Class("device-details-row", show), Children(
		El("td", Attr("colspan", strconv.Itoa(deviceColumns)), Children(
			El("div", Class("device-details-content"), Children(
				El("h4", Children(Icon("list")), Text(" 组件信息")),
				El("div", ID("details-content-"+id), Children(DeviceDetails(d))),
			)),
		)),
	))
}

// DeviceDetails is the component table of one device.
func DeviceDetails(d dashboard.Device) *html.Node {
	if d.Status != dashboard.StatusOnline {
		return muted("点击刷新更新组件信息")
	}
	if len(d.Data) == 0 {
		return muted("暂无组件信息")
	}

	body := El("tbody")
	for _, item := range d.Data {
		body.AppendChild(componentRow(d.ID, item))
	}
	head := El("tr")
	for _, h := range []string{"组件名称", "状态", "操作", "命令"} {
		head.AppendChild(El("th", Text(h)))
	}
	return El("table", Class("device-details-table"), Children(
		El("thead", Children(head)),
		body,
	))
}

func componentRow(deviceID int, item backend.Component) *html.Node {
	status := "stopped"
	if item.Running() {
		status = "running"
	}

	vnc := El("span", Class("muted"), Text("-"))
	if item.Running() {
		name := item.Name
		if name == "" {
			name = item.Label()
		}
		vnc = El("button", Class("btn", "btn-primary"),
			On("click", dashboard.ActionOpenVNC, idArgs(deviceID, "item", name)),
			Children(Icon("external-link-alt")), Text(" VNC"))
	}

	exec := El("span", Class("muted"), Text("-"))
	if item.CanExecute {
		exec = El("form", Class("execute-form"),
			On("submit", dashboard.ActionExecute, idArgs(deviceID, "item", item.ID)),
			Children(
				El("input", Attr("type", "text"), Attr("name", "command"), Attr("placeholder", "输入命令"), Attr("autocomplete", "off")),
				El("button", Attr("type", "submit"), Class("btn", "btn-sm", "btn-secondary"), Text("执行")),
			))
	}

	label := El("td", Children(El("strong", Text(item.Label()))))
	if item.Description != "" {
		label.AppendChild(El("div", Class("component-desc"), Text(item.Description)))
	}
	return El("tr", Attr("data-item-id", item.ID), Children(
		label,
		El("td", Children(El("span", Class("component-status", status), Text(dashboard.ComponentStatusLabel(item))))),
		El("td", Children(vnc)),
		El("td", Children(exec)),
	))
}

// ConfigsView lists configs with edit and delete buttons. Clicking an item
// selects it.
func ConfigsView(s dashboard.State) *html.Node {
	list := El("div", ID("config-list"), Class("config-list"))
	if len(s.Configs) == 0 {
		list.AppendChild(muted("暂无配置"))
	}
	for _, c := range s.Configs {
		list.AppendChild(configItem(c, c.ID == s.SelectedID))
	}

	return El("section", ID(RegionView), Class("panel"), Attr("data-view", string(dashboard.ViewConfigs)), Children(
		El("div", Class("panel-header"), Children(
			El("h2", Children(Icon("cog")), Text(" 设备配置")),
			El("button", Class("btn", "btn-primary"),
				On("click", dashboard.ActionAddConfig, nil),
				Children(Icon("plus")), Text(" 添加配置")),
		)),
		list,
	))
}

func configItem(c backend.Config, selected bool) *html.Node {
	sel := ""
	if selected {
		sel = "selected"
	}
	meta := El("div", Class("config-meta"), Text(c.LoginURL))
	if c.SSHHost != "" {
		meta.AppendChild(El("span", Class("config-ssh"), Children(Icon("terminal")), Text(" "+c.SSHHost)))
	}
	return El("div", Class("config-item", sel), Attr("data-config-id", strconv.Itoa(c.ID)),
		On("click", dashboard.ActionSelectConfig, idArgs(c.ID)),
		Children(
			El("h4", Text(c.Name), Children(
				El("span", Class("device-status-badge", "type-"+typeClass(c.DevType)), Text(dashboard.DeviceTypeLabel(c.DevType))),
			)),
			meta,
			El("div", Class("config-actions"), Children(
				El("button", Class("btn", "btn-outline"),
					On("click", dashboard.ActionEditConfig, idArgs(c.ID)),
					Text("编辑")),
				El("button", Class("btn", "btn-danger"),
					On("click", dashboard.ActionDeleteConfig, idArgs(c.ID)),
					Confirm(dashboard.DeleteConfirmPrompt),
					Text("删除")),
			)),
		))
}

type formField struct {
	name        string
	label       string
	kind        string
	placeholder string
}

var configFields = []formField{
	{"name", "配置名称", "text", "例如：生产环境"},
	{"login_url", "登录URL", "text", "http://192.168.1.10/login"},
	{"data_url", "数据URL", "text", "可选"},
	{"username", "用户名", "text", ""},
	{"password", "密码", "password", ""},
}

var sshFields = []formField{
	{"ssh_host", "SSH主机", "text", "192.168.1.10"},
	{"ssh_user", "SSH用户", "text", "root"},
	{"ssh_pass", "SSH密码", "password", ""},
	{"ssh_port", "SSH端口", "text", "22"},
	{"vnc_pass", "VNC密码", "password", ""},
}

var devTypes = []string{"csmp", "xc"}

// ConfigModal is the add/edit form, or an empty hidden container when no
// form is open.
func ConfigModal(m *dashboard.ConfigModal) *html.Node {
	if m == nil {
		return El("div", ID(RegionModal), Class("modal"))
	}

	invalid := ""
	if m.Error != nil {
		invalid = m.Error.Field
	}

	form := El("form", ID("config-form"), On("submit", dashboard.ActionSaveConfig, nil))
	if m.EditID > 0 {
		form.AppendChild(El("input", Attr("type", "hidden"), Attr("name", "id"), Attr("value", strconv.Itoa(m.EditID))))
	}
	if m.Error != nil {
		form.AppendChild(El("div", Class("form-error"), Attr("data-field", m.Error.Field), Text(m.Error.Message)))
	}
	for _, f := range configFields {
		form.AppendChild(inputGroup(f, m.Values[f.name], f.name == invalid))
	}
	form.AppendChild(devTypeGroup(m.Values["dev_type"]))
	form.AppendChild(El("h4", Class("form-section"), Children(Icon("terminal")), Text(" SSH / VNC")))
	for _, f := range sshFields {
		form.AppendChild(inputGroup(f, m.Values[f.name], f.name == invalid))
	}
	form.AppendChild(El("div", Class("btn-row"), Children(
		El("button", Attr("type", "button"), Class("btn", "btn-outline"),
			On("click", dashboard.ActionTestSSH, nil), CollectForm(),
			Children(Icon("plug")), Text(" 测试SSH")),
		El("button", Attr("type", "button"), Class("btn", "btn-secondary"),
			On("click", dashboard.ActionHideModals, nil),
			Text("取消")),
		El("button", Attr("type", "submit"), Class("btn", "btn-primary"), Text("保存")),
	)))

	return El("div", ID(RegionModal), Class("modal", "show"), Children(
		El("div", Class("modal-content"), Children(
			El("div", Class("modal-header"), Children(
				El("h3", Text(m.Title)),
				El("button", Attr("type", "button"), Class("close-btn"), Attr("title", "关闭"),
					On("click", dashboard.ActionHideModals, nil),
					Children(Icon("times"))),
			)),
			form,
		)),
	))
}

func inputGroup(f formField, value string, invalid bool) *html.Node {
	id := "field-" + f.name
	return El("div", Class("form-group"), Children(
		El("label", Attr("for", id), Text(f.label)),
		El("input", ID(id), Attr("type", f.kind), Attr("name", f.name), Attr("value", value),
			If(f.placeholder != "", Attr("placeholder", f.placeholder)),
			If(invalid, Class("invalid"))),
	))
}

func devTypeGroup(current string) *html.Node {
	sel := El("select", ID("field-dev_type"), Attr("name", "dev_type"))
	sel.AppendChild(El("option", Attr("value", ""), Text(dashboard.DeviceTypeLabel(""))))
	for _, t := range devTypes {
		sel.AppendChild(El("option", Attr("value", t), If(t == current, Attr("selected", "selected")), Text(dashboard.DeviceTypeLabel(t))))
	}
	return El("div", Class("form-group"), Children(
		El("label", Attr("for", "field-dev_type"), Text("设备类型")),
		sel,
	))
}

// LogLine renders one activity entry.
func LogLine(e dashboard.LogEntry) *html.Node {
	return El("div", Class("log-entry", "log-"+e.Level), Attr("data-level", e.Level), Children(
		El("span", Class("log-time"), Text("["+e.Timestamp.Format("15:04:05")+"]")),
		El("span", Class("log-message"), Text(e.Message)),
	))
}

// LogPanel is the activity panel, oldest entry first.
func LogPanel(entries []dashboard.LogEntry) *html.Node {
	list := El("div", ID("log-entries"), Class("log-entries"))
	if len(entries) == 0 {
		list.AppendChild(El("div", Class("log-empty", "muted"), Text("暂无日志")))
	}
	for _, e := range entries {
		list.AppendChild(LogLine(e))
	}
	return El("aside", ID(RegionLog), Class("log-panel"), Children(
		El("div", Class("log-header"), Children(
			El("h3", Children(Icon("clipboard-list")), Text(" 操作日志")),
			El("button", Class("btn", "btn-sm", "btn-secondary"),
				On("click", dashboard.ActionClearLog, nil),
				Text("清空")),
		)),
		list,
	))
}

// Loading is the overlay the page script shows while an action is in
// flight.
func Loading() *html.Node {
	return El("div", ID(RegionLoading), Class("loading-overlay"), Children(
		El("div", Class("spinner")),
		El("p", Text("加载中...")),
	))
}

// Toast renders one notification.
func Toast(t dashboard.Toast) *html.Node {
	bg, fg := dashboard.ToastColors(t.Kind)
	return El("div", Class("notification", "notification-"+t.Kind),
		Attr("data-toast-id", t.ID),
		Attr("data-duration", strconv.FormatInt(t.DurationMS, 10)),
		Style("background:"+bg+";color:"+fg),
		Children(
			Icon(t.Icon),
			El("span", Text(t.Message)),
		))
}

// ToastStack holds the toasts visible when the page is rendered.
func ToastStack(toasts []dashboard.Toast) *html.Node {
	stack := El("div", ID("toasts"), Class("toast-stack"))
	for _, t := range toasts {
		stack.AppendChild(Toast(t))
	}
	return stack
}
