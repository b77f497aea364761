package codegen

// jsPreamble is the fixed-string runtime the JS backend prepends to
// every generated file (§4.5). It supplies the probabilistic
// primitives the translated expression calls into: weighted/uniform
// bet draws, six distribution constructors, sample/observe/infer,
// Monte Carlo and Markov helpers, and the uncertainty-propagating
// value wrapper.
const jsPreamble = `function __bet_uniform(a, b, c) {
  const r = Math.random();
  if (r < 1 / 3) return a;
  if (r < 2 / 3) return b;
  return c;
}

function __bet_weighted(alts, weights) {
  const total = weights.reduce((s, w) => s + w, 0);
  if (total <= 0) return alts[alts.length - 1];
  let r = Math.random() * total;
  let cum = 0;
  for (let i = 0; i < alts.length; i++) {
    cum += weights[i];
    if (r < cum) return alts[i];
  }
  return alts[alts.length - 1];
}

function __bet_box_muller() {
  let u1 = Math.random();
  const u2 = Math.random();
  if (u1 <= 0) u1 = 1e-12;
  return Math.sqrt(-2 * Math.log(u1)) * Math.cos(2 * Math.PI * u2);
}

function __bet_sample_gamma(shape) {
  if (shape < 1) {
    const u = Math.random();
    return __bet_sample_gamma(shape + 1) * Math.pow(u, 1 / shape);
  }
  const d = shape - 1 / 3;
  const c = 1 / Math.sqrt(9 * d);
  for (;;) {
    let x, v;
    do {
      x = __bet_box_muller();
      v = 1 + c * x;
    } while (v <= 0);
    v = v * v * v;
    const u = Math.random();
    if (u < 1 - 0.0331 * x * x * x * x) return d * v;
    if (Math.log(u) < 0.5 * x * x + d * (1 - v + Math.log(v))) return d * v;
  }
}

function __bet_dist_normal(mu, sigma) {
  return {
    name: 'normal', params: [mu, sigma],
    sample: () => mu + sigma * __bet_box_muller(),
    logpdf: (x) => -0.5 * Math.log(2 * Math.PI * sigma * sigma) - ((x - mu) * (x - mu)) / (2 * sigma * sigma),
  };
}

function __bet_dist_uniform(lo, hi) {
  return {
    name: 'uniform', params: [lo, hi],
    sample: () => lo + Math.random() * (hi - lo),
    logpdf: (x) => (x >= lo && x <= hi) ? -Math.log(hi - lo) : -Infinity,
  };
}

function __bet_dist_bernoulli(p) {
  return {
    name: 'bernoulli', params: [p],
    sample: () => (Math.random() < p ? 1 : 0),
    logpdf: (x) => Math.log(x === 1 ? p : 1 - p),
  };
}

function __bet_dist_beta(alpha, beta) {
  return {
    name: 'beta', params: [alpha, beta],
    sample: () => {
      const x = __bet_sample_gamma(alpha);
      const y = __bet_sample_gamma(beta);
      return x / (x + y);
    },
    logpdf: (x) => Math.log(Math.pow(x, alpha - 1) * Math.pow(1 - x, beta - 1)),
  };
}

function __bet_dist_exponential(rate) {
  return {
    name: 'exponential', params: [rate],
    sample: () => {
      let u = Math.random();
      if (u <= 0) u = 1e-12;
      return -Math.log(u) / rate;
    },
    logpdf: (x) => (x >= 0 ? Math.log(rate) - rate * x : -Infinity),
  };
}

function __bet_dist_poisson(lambda) {
  return {
    name: 'poisson', params: [lambda],
    sample: () => {
      const l = Math.exp(-lambda);
      let k = 0;
      let p = 1;
      do {
        k++;
        p *= Math.random();
      } while (p > l);
      return k - 1;
    },
    logpdf: (x) => x * Math.log(lambda) - lambda - __bet_log_factorial(x),
  };
}

function __bet_log_factorial(n) {
  let acc = 0;
  for (let i = 2; i <= n; i++) acc += Math.log(i);
  return acc;
}

function __bet_sample(d) {
  if (!d || typeof d.sample !== 'function') {
    throw new Error('sample: not a distribution');
  }
  return d.sample();
}

function __bet_observe(d, x) {
  return d.logpdf(x);
}

function __bet_infer(method, params, modelFn) {
  const n = (params && typeof params.samples === 'number') ? params.samples
    : (params && typeof params.n === 'number') ? params.n
    : 1000;
  switch (method) {
    case 'importance': {
      const samples = [];
      const weights = [];
      for (let i = 0; i < n; i++) {
        let logWeight = 0;
        const ctx = { observe: (d, v) => { logWeight += d.logpdf(v); } };
        const value = modelFn(ctx);
        samples.push(value);
        weights.push(Math.exp(logWeight));
      }
      const resampled = [];
      for (let i = 0; i < n; i++) {
        resampled.push(__bet_weighted(samples, weights));
      }
      return resampled;
    }
    case 'mcmc': {
      const samples = [];
      let current = modelFn();
      let currentLogWeight = 0;
      for (let i = 0; i < n; i++) {
        let proposedLogWeight = 0;
        const ctx = { observe: (d, v) => { proposedLogWeight += d.logpdf(v); } };
        const proposed = modelFn(ctx);
        const accept = proposedLogWeight >= currentLogWeight
          || Math.log(Math.random()) < proposedLogWeight - currentLogWeight;
        if (accept) {
          current = proposed;
          currentLogWeight = proposedLogWeight;
        }
        samples.push(current);
      }
      return samples;
    }
    case 'rejection':
    default: {
      const samples = [];
      const maxAttempts = 100 * n;
      for (let i = 0; i < maxAttempts && samples.length < n; i++) {
        const value = modelFn();
        if (value !== null && value !== undefined) samples.push(value);
      }
      return samples;
    }
  }
}

function __bet_monte_carlo(n, trialFn) {
  const results = [];
  for (let i = 0; i < n; i++) results.push(trialFn());
  return results;
}

function __bet_mc_mean(xs) {
  if (xs.length === 0) return 0;
  return xs.reduce((s, x) => s + x, 0) / xs.length;
}

function __bet_mc_variance(xs) {
  if (xs.length === 0) return 0;
  const m = __bet_mc_mean(xs);
  return xs.reduce((s, x) => s + (x - m) * (x - m), 0) / xs.length;
}

function __bet_markov_step(s, t) {
  return t(s);
}

function __bet_markov_chain(initial, steps, t) {
  const history = [initial];
  let state = initial;
  for (let i = 0; i < steps; i++) {
    state = t(state);
    history.push(state);
  }
  return history;
}

function __BetUncertain(value, variance) {
  this.value = value;
  this.variance = variance;
}

__BetUncertain.prototype.add = function (other) {
  return new __BetUncertain(this.value + other.value, this.variance + other.variance);
};

__BetUncertain.prototype.sub = function (other) {
  return new __BetUncertain(this.value - other.value, this.variance + other.variance);
};

__BetUncertain.prototype.mul = function (other) {
  const value = this.value * other.value;
  const variance = other.value * other.value * this.variance + this.value * this.value * other.variance;
  return new __BetUncertain(value, variance);
};

__BetUncertain.prototype.div = function (other) {
  const value = this.value / other.value;
  const variance = (this.variance + (this.value * this.value * other.variance) / (other.value * other.value)) / (other.value * other.value);
  return new __BetUncertain(value, variance);
};
`
