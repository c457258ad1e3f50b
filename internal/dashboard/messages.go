package dashboard

// User-facing strings. The dashboard is operated in Chinese.
const (
	msgLoadConfigsFailed = "加载配置失败"
	msgSaveFailed        = "保存配置失败"
	msgCreated           = "配置添加成功"
	msgUpdated           = "配置更新成功"
	msgDeleteConfirm     = "确定要删除这个配置吗？"
	msgDeleteFailed      = "删除配置失败"
	msgDeleted           = "配置删除成功"
	msgLoginURLInvalid   = "登录URL格式不正确"
	msgDataURLInvalid    = "数据URL格式不正确"
	msgNameRequired      = "请填写配置名称"
	msgLoginURLRequired  = "请填写登录URL"
	msgSSHHostRequired   = "请填写SSH主机"
	msgSSHUserRequired   = "请填写SSH用户"
	msgCommandRequired   = "请输入要执行的命令"

	msgDeviceMissing     = "设备不存在"
	msgConfigMissing     = "未找到设备配置"
	msgSSHIncomplete     = "设备SSH配置不完整，请先配置SSH信息"
	msgWebShellBlocked   = "无法打开WebShell窗口,请检查浏览器弹窗设置"
	msgVNCBlocked        = "无法打开VNC窗口"
	msgVNCFailed         = "VNC打开失败"
	msgVNCJumpFailed     = "VNC打开跳转失败"
	msgNoLoginURL        = "该设备未配置登录地址"
	msgLoginPageOpened   = "已在新标签页打开 %s 的登录页面"
	msgRefreshed         = "%s 数据刷新成功"
	msgRefreshFailed     = "刷新 %s 失败"
	msgReloginRequired   = "%s 会话已失效，请重新登录"
	msgLoginOK           = "%s 登录成功"
	msgLoginFailed       = "%s 登录失败"
	msgLoginBatchSummary = "登录完成：%d 个成功，%d 个失败"
	msgSSHTestOK         = "SSH连接测试成功"
	msgSSHTestFailed     = "SSH连接测试失败"
	msgExecuteOK         = "命令执行成功"
	msgExecuteFailed     = "命令执行失败"
	msgLogCleared        = "日志已清空"

	titleAddConfig  = "添加配置"
	titleEditConfig = "编辑配置"
)

// DeleteConfirmPrompt is asked before a config is deleted.
const DeleteConfirmPrompt = msgDeleteConfirm
