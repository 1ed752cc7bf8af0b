// Package templates holds the server-rendered dashboard page and its
// HTML fragments.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"finance-dashboard/internal/market"
	"finance-dashboard/models"
)

// IndexData feeds the dashboard page
type IndexData struct {
	Symbol      string
	Timeframes  []market.Timeframe
	Stocks      []models.DirectoryEntry
	Cryptos     []models.DirectoryEntry
	NewsSymbols []string
}

// Index renders the dashboard page
func Index(data IndexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>Finance Dashboard</title><style>`)
		h.raw(pageCSS)
		h.raw(`</style></head><body><header><h1>Finance Dashboard</h1></header><main>`)

		h.raw(`<form id="controls"><label>Symbol <input name="symbol" list="symbols" value="`)
		h.text(data.Symbol)
		h.raw(`"></label><datalist id="symbols">`)
		for _, group := range [][]models.DirectoryEntry{data.Stocks, data.Cryptos} {
			for _, e := range group {
				h.raw(`<option value="`)
				h.text(e.Symbol)
				h.raw(`">`)
				h.text(e.CompanyName)
				h.raw(`</option>`)
			}
		}
		h.raw(`</datalist><div class="timeframes">`)
		for _, tf := range data.Timeframes {
			checked := ""
			if tf.Days == market.DefaultDays {
				checked = " checked"
			}
			h.rawf(`<label><input type="radio" name="days" value="%d" data-sample="%d"%s>`, tf.Days, tf.Sample, checked)
			h.text(tf.Value)
			h.raw(`</label>`)
		}
		h.raw(`</div><select name="type"><option value="line">Line</option><option value="area">Area</option>`)
		h.raw(`<option value="candlestick">Candlestick</option></select>`)
		h.raw(`<label><input type="checkbox" name="volume" checked> Volume</label>`)
		h.raw(`<button type="submit">Load</button></form>`)

		h.raw(`<section id="quote" class="quote"></section>`)
		h.raw(`<div id="chart" class="chart"><img id="chart-img" alt="price chart"><div id="tooltip"></div></div>`)
		h.raw(`<p class="alt-link"><a id="interactive" target="_blank">Open interactive chart</a></p>`)

		h.raw(`<section id="news-panel"><h2>News</h2><select id="news-symbol">`)
		for _, s := range data.NewsSymbols {
			h.raw(`<option>`)
			h.text(s)
			h.raw(`</option>`)
		}
		h.raw(`</select><select id="news-sentiment"><option value="">All</option>`)
		h.raw(`<option value="POSITIVE">Positive</option><option value="NEGATIVE">Negative</option></select>`)
		h.raw(`<div id="news"></div></section>`)

		h.raw(`</main><script>`)
		h.raw(pageJS)
		h.raw(`</script></body></html>`)
		return h.err
	})
}

const pageCSS = `
body{font-family:system-ui,sans-serif;margin:0;background:#f8fafc;color:#111827}
header{padding:12px 24px;background:#1e293b;color:#fff}
main{max-width:1000px;margin:0 auto;padding:16px}
form{display:flex;flex-wrap:wrap;gap:12px;align-items:center}
.chart{position:relative;margin-top:16px;background:#fff}
.chart img{display:block;width:100%}
.chart-tooltip{position:absolute;pointer-events:none;background:#fff;border:1px solid #e5e7eb;border-radius:6px;padding:6px 8px;font-size:12px;box-shadow:0 2px 6px rgba(0,0,0,.1)}
.tt-price{font-weight:600}
.tt-ohlc span{margin-right:6px}
.quote{margin-top:12px}
.badge{font-size:11px;padding:1px 6px;border-radius:8px;margin-right:4px}
.badge-positive{background:#d1fae5}.badge-negative{background:#fee2e2}.badge-neutral{background:#e5e7eb}
.error-state{color:#b91c1c}
`

const pageJS = `
const form = document.getElementById('controls');
const img = document.getElementById('chart-img');
const tip = document.getElementById('tooltip');
let session = null, moving = false;

function params() {
  const f = new FormData(form);
  const day = form.querySelector('input[name=days]:checked');
  return {
    symbol: (f.get('symbol') || '').trim().toUpperCase(),
    days: Number(day ? day.value : 30),
    sample: Number(day ? day.dataset.sample : 0),
    type: f.get('type'),
    volume: f.get('volume') === 'on',
    width: Math.round(img.parentElement.clientWidth),
    height: 400,
  };
}

async function loadQuote(p) {
  const path = p.symbol.endsWith('-USD') ? '/api/crypto' : '/api/stock';
  const res = await fetch(path + '?symbol=' + encodeURIComponent(p.symbol) + '&days=' + p.days + '&sample=' + p.sample);
  const el = document.getElementById('quote');
  if (!res.ok) { el.textContent = 'Failed to load ' + p.symbol; return; }
  const data = await res.json();
  const q = data.quote;
  el.textContent = q.symbol + '  $' + q.price.toFixed(2) + '  ' + q.change.toFixed(2) + ' (' + q.changePercent.toFixed(2) + '%)';
}

async function openSession(p) {
  if (session) { fetch('/api/chart/sessions/' + session, {method: 'DELETE'}); session = null; }
  const res = await fetch('/api/chart/sessions', {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(p)});
  if (!res.ok) { img.removeAttribute('src'); return; }
  session = (await res.json()).id;
  redraw();
}

function redraw() {
  if (!session) return;
  img.src = '/api/chart/sessions/' + session + '/frame.svg?t=' + Date.now();
  fetch('/api/chart/sessions/' + session + '/tooltip').then(r => r.text()).then(t => { tip.innerHTML = t; });
}

img.addEventListener('mousemove', async (e) => {
  if (!session || moving) return;
  moving = true;
  const r = img.getBoundingClientRect();
  const res = await fetch('/api/chart/sessions/' + session + '/pointer', {method: 'POST', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({x: e.clientX - r.left, y: e.clientY - r.top})});
  moving = false;
  if (res.ok && (await res.json()).redrawn) redraw();
});

img.addEventListener('mouseleave', async () => {
  if (!session) return;
  const res = await fetch('/api/chart/sessions/' + session + '/leave', {method: 'POST'});
  if (res.ok && (await res.json()).redrawn) redraw();
});

window.addEventListener('resize', async () => {
  if (!session) return;
  const res = await fetch('/api/chart/sessions/' + session + '/resize', {method: 'POST', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({width: Math.round(img.parentElement.clientWidth), height: 400})});
  if (res.ok && (await res.json()).redrawn) redraw();
});

form.addEventListener('submit', (e) => {
  e.preventDefault();
  const p = params();
  if (!p.symbol) return;
  loadQuote(p);
  openSession(p);
  document.getElementById('interactive').href = '/api/chart/' + encodeURIComponent(p.symbol) + '/interactive?days=' + p.days + '&type=' + p.type + '&volume=' + p.volume;
});

async function loadNews(page) {
  const sym = document.getElementById('news-symbol').value;
  const sent = document.getElementById('news-sentiment').value;
  const res = await fetch('/partials/news?symbol=' + sym + '&page=' + page + '&sentiment=' + sent);
  document.getElementById('news').innerHTML = await res.text();
}

document.getElementById('news').addEventListener('click', (e) => {
  if (e.target.dataset.page) loadNews(Number(e.target.dataset.page));
});
document.getElementById('news-symbol').addEventListener('change', () => loadNews(1));
document.getElementById('news-sentiment').addEventListener('change', () => loadNews(1));

form.requestSubmit();
loadNews(1);
`
