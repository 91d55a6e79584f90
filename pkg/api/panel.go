package api

import (
	"net/http"

	"github.com/yavik-kapadia/HTML2NDI/pkg/network/httpx"
)

func (a *API) panel(w httpx.ResponseWriter, r *httpx.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(panelHTML))
}

const panelHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>HTML2NDI Control Panel</title>
<style>
body{font-family:system-ui,sans-serif;background:#18181b;color:#e4e4e7;margin:0;padding:2rem}
.wrap{max-width:720px;margin:0 auto}
h1{font-size:1.5rem}
.card{background:#27272a;border:1px solid #3f3f46;border-radius:10px;padding:1rem;margin-bottom:1rem}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(140px,1fr));gap:.75rem}
.stat-l{font-size:.7rem;color:#a1a1aa;text-transform:uppercase}
.stat-v{font-size:1.1rem;font-variant-numeric:tabular-nums}
label{display:block;font-size:.85rem;color:#a1a1aa;margin:.5rem 0 .25rem}
input,select{width:100%;box-sizing:border-box;padding:.5rem;background:#18181b;border:1px solid #3f3f46;border-radius:6px;color:#e4e4e7}
button{margin-top:.75rem;padding:.5rem 1rem;border:0;border-radius:6px;background:#6366f1;color:#fff;cursor:pointer}
button.danger{background:#dc2626}
img{max-width:100%;border-radius:6px}
</style>
</head>
<body>
<div class="wrap">
<h1>HTML2NDI</h1>
<div class="card"><div class="grid">
<div><div class="stat-l">FPS</div><div class="stat-v" id="fps">-</div></div>
<div><div class="stat-l">Sent</div><div class="stat-v" id="sent">-</div></div>
<div><div class="stat-l">Held</div><div class="stat-v" id="held">-</div></div>
<div><div class="stat-l">Dropped</div><div class="stat-v" id="dropped">-</div></div>
<div><div class="stat-l">Genlock</div><div class="stat-v" id="gl">-</div></div>
<div><div class="stat-l">Offset &micro;s</div><div class="stat-v" id="off">-</div></div>
</div></div>
<div class="card">
<label>Source URL</label><input id="url">
<button onclick="setUrl()">Apply</button>
<button onclick="post('/reload')">Reload</button>
</div>
<div class="card">
<label>Genlock mode</label>
<select id="mode"><option>disabled</option><option>master</option><option>slave</option></select>
<label>Master address</label><input id="master" placeholder="10.0.0.1:5960">
<button onclick="setGenlock()">Apply</button>
</div>
<div class="card"><img id="thumb" alt="preview"></div>
<div class="card"><button class="danger" onclick="post('/shutdown')">Shutdown</button></div>
</div>
<script>
const $=id=>document.getElementById(id);
function render(s){
 $('fps').textContent=s.actual_fps.toFixed(1)+' / '+s.fps;
 $('sent').textContent=s.frames.frames_sent;
 $('held').textContent=s.frames.frames_held;
 $('dropped').textContent=s.frames.frames_dropped;
 $('gl').textContent=s.genlock.mode+(s.genlocked?' (locked)':'');
 $('off').textContent=s.genlock.offset_us;
}
async function post(path,body){
 await fetch(path,{method:'POST',headers:{'Content-Type':'application/json'},body:body?JSON.stringify(body):undefined});
}
function setUrl(){post('/seturl',{url:$('url').value})}
function setGenlock(){
 const b={mode:$('mode').value};
 if($('master').value)b.master_address=$('master').value;
 post('/genlock',b);
}
const ws=new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/events');
ws.onmessage=e=>render(JSON.parse(e.data));
setInterval(()=>{$('thumb').src='/thumbnail?width=480&t='+Date.now()},2000);
</script>
</body>
</html>
`
