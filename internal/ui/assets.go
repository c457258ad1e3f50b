package ui

const pageCSS = `
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,'PingFang SC','Microsoft YaHei',sans-serif;background:#f5f6fa;color:#2c3e50;line-height:1.6}

/* Header */
.hdr{background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:#fff;padding:14px 20px;display:flex;align-items:center;justify-content:space-between;position:sticky;top:0;z-index:100}
.hdr h1{font-size:18px;font-weight:600;display:flex;align-items:center;gap:8px}
.backend-status{display:flex;align-items:center;font-size:13px;gap:6px}
.hdr-dot{width:10px;height:10px;border-radius:50%;display:inline-block}
.dot-green{background:#22c55e}.dot-red{background:#ef4444}.dot-gray{background:#9ca3af}

/* Layout */
.layout{display:grid;grid-template-columns:200px 1fr 320px;min-height:calc(100vh - 52px)}
.menu{background:#2c3e50;color:#ecf0f1}
.menu ul{list-style:none;padding:12px 0}
.menu-item{padding:12px 20px;cursor:pointer;display:flex;align-items:center;gap:10px;transition:background .2s}
.menu-item:hover{background:#34495e}
.menu-item.active{background:#667eea}
.content{padding:20px;overflow-x:auto}

/* Panels */
.panel{background:#fff;border-radius:8px;padding:20px;box-shadow:0 1px 3px rgba(0,0,0,.1);animation:fadeIn .3s ease}
.panel-header{display:flex;justify-content:space-between;align-items:center;margin-bottom:16px;padding-bottom:8px;border-bottom:1px solid #eee}
.panel-header h2{font-size:16px}
.muted{color:#7f8c8d;text-align:center;padding:1rem}

/* Buttons */
.btn{display:inline-flex;align-items:center;gap:6px;padding:6px 12px;border-radius:6px;border:none;cursor:pointer;font-size:13px;font-weight:500;transition:all .2s;line-height:1.4}
.btn:disabled{opacity:.5;cursor:not-allowed}
.btn-primary{background:#667eea;color:#fff}.btn-primary:hover{background:#5a67d8}
.btn-secondary{background:#e5e7eb;color:#374151}.btn-secondary:hover{background:#d1d5db}
.btn-success{background:#28a745;color:#fff}.btn-success:hover{background:#218838}
.btn-warning{background:#ffc107;color:#212529}
.btn-info{background:#17a2b8;color:#fff}
.btn-outline{background:#fff;color:#667eea;border:1px solid #667eea}
.btn-danger{background:#fff;color:#dc3545;border:1px solid #dc3545}.btn-danger:hover{background:#fef2f2}
.btn-sm{padding:4px 8px;font-size:12px}
.btn-row{display:flex;gap:8px;flex-wrap:wrap;margin-top:16px;justify-content:flex-end}

/* Devices */
.devices-table{width:100%;border-collapse:collapse;font-size:14px}
.devices-table th{text-align:left;padding:10px;background:#f8f9fa;color:#555;font-weight:600;border-bottom:2px solid #e5e7eb}
.devices-table td{padding:10px;border-bottom:1px solid #f0f0f0;vertical-align:middle}
.devices-table td.empty{text-align:center;color:#7f8c8d;padding:2rem}
.device-name-container{display:flex;align-items:center;gap:8px}
.device-name{font-weight:600}
.device-actions{display:flex;gap:6px}
.expand-btn{background:none;border:none;cursor:pointer;color:#667eea;width:24px;transition:transform .2s}
.device-status-badge{display:inline-block;padding:2px 10px;border-radius:20px;font-size:12px;font-weight:500;background:#f3f4f6;color:#374151}
.device-status-badge.online{background:#dcfce7;color:#166534}
.device-status-badge.offline{background:#fee2e2;color:#991b1b}
.device-status-badge.warning{background:#fef9c3;color:#854d0e}
.device-status-badge.type-csmp,.device-status-badge.type-CSMP{background:#dbeafe;color:#1e40af}
.device-status-badge.type-xc,.device-status-badge.type-XC{background:#ede9fe;color:#5b21b6}
.device-details-row{display:none}
.device-details-row.show{display:table-row}
.device-details-content{background:#f9fafb;border-radius:6px;padding:12px}
.device-details-content h4{font-size:14px;margin-bottom:8px}
.device-details-table{width:100%;border-collapse:collapse;font-size:13px}
.device-details-table th,.device-details-table td{padding:6px 8px;border-bottom:1px solid #eee;text-align:left}
.component-status.running{color:#28a745}.component-status.stopped{color:#7f8c8d}
.component-desc{font-size:12px;color:#7f8c8d}
.execute-form{display:flex;gap:6px}
.execute-form input{flex:1;padding:4px 8px;border:1px solid #ddd;border-radius:4px;font-family:'SF Mono','Cascadia Code','Courier New',monospace;font-size:12px}

/* Configs */
.config-item{border:1px solid #e5e7eb;border-radius:6px;padding:12px 14px;margin-bottom:10px;cursor:pointer;display:grid;grid-template-columns:1fr auto;gap:4px 12px;transition:all .2s}
.config-item:hover{border-color:#667eea}
.config-item.selected{border-color:#667eea;background:#eef2ff;box-shadow:0 0 0 3px rgba(102,126,234,.15)}
.config-item h4{font-size:14px;display:flex;align-items:center;gap:8px}
.config-meta{grid-column:1;font-size:12px;color:#666;display:flex;gap:12px}
.config-actions{grid-row:1/3;grid-column:2;display:flex;gap:6px;align-items:center}

/* Modal */
.modal{display:none}
.modal.show{position:fixed;inset:0;background:rgba(0,0,0,.4);display:flex;align-items:center;justify-content:center;z-index:150;animation:fadeIn .2s}
.modal-content{background:#fff;border-radius:8px;padding:24px;max-width:560px;width:92%;max-height:90vh;overflow-y:auto;box-shadow:0 8px 24px rgba(0,0,0,.2)}
.modal-header{display:flex;justify-content:space-between;align-items:center;margin-bottom:12px}
.modal-header h3{font-size:16px}
.close-btn{background:none;border:none;font-size:18px;cursor:pointer;color:#888}
.form-section{font-size:13px;color:#555;margin:16px 0 8px;padding-top:8px;border-top:1px solid #eee}
.form-group{margin-bottom:12px}
.form-group label{display:block;font-size:13px;font-weight:500;margin-bottom:4px;color:#555}
.form-group input,.form-group select{width:100%;padding:8px 12px;border:1px solid #ddd;border-radius:6px;font-size:14px;transition:border .2s}
.form-group input:focus,.form-group select:focus{outline:none;border-color:#667eea;box-shadow:0 0 0 3px rgba(102,126,234,.15)}
.form-group input.invalid{border-color:#dc3545}
.form-error{background:#fef2f2;border:1px solid #fecaca;border-radius:6px;padding:10px;color:#991b1b;font-size:13px;margin-bottom:12px}

/* Log panel */
.log-panel{background:#1a1a2e;color:#a0aec0;display:flex;flex-direction:column;max-height:calc(100vh - 52px);position:sticky;top:52px}
.log-header{display:flex;justify-content:space-between;align-items:center;padding:12px 14px;border-bottom:1px solid #2d2d4a}
.log-header h3{font-size:14px;color:#e2e8f0}
.log-entries{flex:1;overflow-y:auto;padding:10px 14px;font-family:'SF Mono','Cascadia Code','Courier New',monospace;font-size:12px}
.log-entry{padding:2px 0;white-space:pre-wrap;word-break:break-all}
.log-time{color:#667eea;margin-right:6px}
.log-info{color:#a0aec0}.log-success{color:#22c55e}.log-warn{color:#f59e0b}.log-error{color:#ef4444}

/* Loading overlay */
.loading-overlay{display:none}
.loading-overlay.show{position:fixed;inset:0;background:rgba(255,255,255,.6);display:flex;flex-direction:column;align-items:center;justify-content:center;z-index:2000;color:#555}
.spinner{width:36px;height:36px;border:3px solid rgba(0,0,0,.1);border-top-color:#667eea;border-radius:50%;animation:spin .8s linear infinite;margin-bottom:8px}

/* Toasts */
.toast-stack{position:fixed;top:20px;right:20px;z-index:3000;display:flex;flex-direction:column;gap:8px}
.notification{padding:1rem 1.5rem;border-radius:8px;font-weight:500;display:flex;align-items:center;gap:.5rem;box-shadow:0 4px 15px rgba(0,0,0,.2);transform:translateX(120%);transition:transform .3s ease}
.notification.in{transform:translateX(0)}

@keyframes fadeIn{from{opacity:0;transform:translateY(8px)}to{opacity:1;transform:translateY(0)}}
@keyframes spin{to{transform:rotate(360deg)}}

@media(max-width:1100px){
 .layout{grid-template-columns:1fr}
 .menu ul{display:flex;padding:0}
 .log-panel{position:static;max-height:300px}
}

:focus-visible{outline:2px solid #667eea;outline-offset:2px}
`

const pageJS = `
(function() {
'use strict';

var TRANSITION_MS = 300;
var LOADING_DELAY_MS = 150;

// ============ Actions ============
function viewport() {
 var de = document.documentElement;
 return {
  _vp_left: window.screenLeft !== undefined ? window.screenLeft : window.screenX,
  _vp_top: window.screenTop !== undefined ? window.screenTop : window.screenY,
  _vp_width: window.innerWidth || de.clientWidth || screen.width,
  _vp_height: window.innerHeight || de.clientHeight || screen.height
 };
}

function collectArgs(el) {
 var body = new URLSearchParams();
 var vp = viewport();
 for (var k in vp) body.set(k, vp[k]);

 var form = null;
 if (el && el.tagName === 'FORM') form = el;
 else if (el && el.getAttribute('data-collect') === 'form') form = el.closest('form');
 if (form) {
  var fd = new FormData(form);
  fd.forEach(function(v, k) { body.set(k, v); });
 }
 if (el) {
  for (var i = 0; i < el.attributes.length; i++) {
   var a = el.attributes[i];
   if (a.name.indexOf('data-arg-') === 0) body.set(a.name.slice(9), a.value);
  }
 }
 return body;
}

var tabMeta = document.querySelector('meta[name="icdash-tab"]');
var tab = tabMeta ? tabMeta.getAttribute('content') : '';

// ============ Loading ============
var pending = 0, loadingTimer = null;
function showLoading() {
 if (pending++ > 0) return;
 loadingTimer = setTimeout(function() {
  var el = document.getElementById('loading');
  if (el) el.classList.add('show');
 }, LOADING_DELAY_MS);
}

function hideLoading() {
 if (pending === 0 || --pending > 0) return;
 clearTimeout(loadingTimer);
 var el = document.getElementById('loading');
 if (el) el.classList.remove('show');
}

function send(action, el, extra) {
 var body = collectArgs(el);
 if (extra) for (var k in extra) body.set(k, extra[k]);
 var prompt = el && el.getAttribute('data-confirm');
 if (prompt) {
  if (!window.confirm(prompt)) return;
  body.set('confirmed', 'true');
 }
 var headers = {'Content-Type': 'application/x-www-form-urlencoded'};
 if (tab) headers['X-Dashboard-Tab'] = tab;
 showLoading();
 return fetch('/ui/actions/' + encodeURIComponent(action), {
  method: 'POST',
  credentials: 'same-origin',
  headers: headers,
  body: body.toString()
 }).then(function(r) { return r.json(); }).then(function(res) {
  hideLoading();
  apply(res);
 }).catch(function() {
  hideLoading();
  showToastHTML('<div class="notification notification-error" style="background:#dc3545;color:white"><i class="fas fa-exclamation-circle"></i><span>网络错误</span></div>', 3000);
 });
}

function apply(res) {
 if (!res) return;
 if (res.tab && res.tab !== tab) {
  tab = res.tab;
  if (live) live.close();
 }
 var frags = res.fragments || {};
 for (var id in frags) {
  var el = document.getElementById(id);
  if (el) el.outerHTML = frags[id];
 }
 (res.toasts || []).forEach(function(t) { showToastHTML(t.html, t.duration_ms); });
 (res.launches || []).forEach(launch);
 scrollLog();
}

function launch(l) {
 var w = l.features ? window.open(l.url, l.name, l.features) : window.open(l.url, l.name);
 if (!w) {
  if (l.kind !== 'login') send('popup-blocked', null, {kind: l.kind});
  return;
 }
 if (l.center) {
  try { w.moveTo(l.left, l.top); } catch (e) {}
 }
}

document.addEventListener('click', function(e) {
 var el = e.target.closest('[data-on="click"]');
 if (!el) return;
 if (el.tagName === 'BUTTON') e.preventDefault();
 e.stopPropagation();
 send(el.getAttribute('data-action'), el);
});

document.addEventListener('submit', function(e) {
 var form = e.target;
 if (form.getAttribute('data-on') !== 'submit') return;
 e.preventDefault();
 send(form.getAttribute('data-action'), form);
});

// ============ Toasts ============
function showToastHTML(html, duration) {
 var stack = document.getElementById('toasts');
 if (!stack) return;
 var holder = document.createElement('div');
 holder.innerHTML = html;
 var el = holder.firstElementChild;
 if (!el) return;
 stack.appendChild(el);
 animateToast(el, duration);
}

function animateToast(el, duration) {
 duration = duration || parseInt(el.getAttribute('data-duration'), 10) || 3000;
 setTimeout(function() { el.classList.add('in'); }, 10);
 setTimeout(function() {
  el.classList.remove('in');
  setTimeout(function() { if (el.parentNode) el.parentNode.removeChild(el); }, TRANSITION_MS);
 }, duration);
}

// ============ Log panel ============
function scrollLog() {
 var list = document.getElementById('log-entries');
 if (list) list.scrollTop = list.scrollHeight;
}

function appendLog(html) {
 var list = document.getElementById('log-entries');
 if (!list) return;
 var empty = list.querySelector('.log-empty');
 if (empty) empty.parentNode.removeChild(empty);
 list.insertAdjacentHTML('beforeend', html);
 scrollLog();
}

// ============ Live updates ============
var live = null, liveRetry = null;
function connectLive() {
 var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
 var ws = new WebSocket(proto + location.host + '/ui/live?tab=' + encodeURIComponent(tab));
 live = ws;
 ws.onmessage = function(ev) {
  var msg;
  try { msg = JSON.parse(ev.data); } catch (e) { return; }
  if (msg.type === 'log') appendLog(msg.html);
 };
 ws.onclose = function() {
  if (live !== ws) return;
  live = null;
  clearTimeout(liveRetry);
  liveRetry = setTimeout(connectLive, 3000);
 };
}

// ============ Init ============
document.addEventListener('DOMContentLoaded', function() {
 var pending = document.querySelectorAll('#toasts .notification');
 for (var i = 0; i < pending.length; i++) animateToast(pending[i]);
 scrollLog();
 if (window.WebSocket) connectLive();
 send('init', null);
});
})();
`
