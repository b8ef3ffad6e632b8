package contract

// gasPassABI is the subset of the GasPass (ERC-3525 gas pass) contract ABI
// the backend touches: enumeration + policy reads, the *WithSig entrypoints
// forwarded by the relay, and autoRefuel. The contract performs all signature,
// nonce and deadline verification; the backend never re-implements it.
const gasPassABI = `[
  {"type":"function","stateMutability":"view","name":"totalSupply","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"tokenByIndex","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"ownerOf","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","stateMutability":"view","name":"balanceOf","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"chainPolicies","inputs":[{"name":"tokenId","type":"uint256"},{"name":"chainId","type":"uint64"}],"outputs":[{"name":"gasAmount","type":"uint256"},{"name":"threshold","type":"uint256"},{"name":"agent","type":"address"},{"name":"lastRefueled","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"totalFeesCollected","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"getWithdrawableFees","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"ownerNonces","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","stateMutability":"view","name":"nonces","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},

  {"type":"function","stateMutability":"nonpayable","name":"mintWithSig","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"tokenId","type":"uint256"}]},
  {"type":"function","stateMutability":"nonpayable","name":"mintBatchWithSig","inputs":[{"name":"to","type":"address"},{"name":"values","type":"uint256[]"},{"name":"deadline","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"tokenIds","type":"uint256[]"}]},
  {"type":"function","stateMutability":"nonpayable","name":"depositWithSig","inputs":[{"name":"tokenId","type":"uint256"},{"name":"value","type":"uint256"},{"name":"deadline","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","stateMutability":"nonpayable","name":"setRefuelPolicyWithSig","inputs":[{"name":"tokenId","type":"uint256"},{"name":"chainId","type":"uint64"},{"name":"gasAmount","type":"uint256"},{"name":"threshold","type":"uint256"},{"name":"agent","type":"address"},{"name":"deadline","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","stateMutability":"nonpayable","name":"cancelRefuelPolicyWithSig","inputs":[{"name":"tokenId","type":"uint256"},{"name":"chainId","type":"uint64"},{"name":"deadline","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","stateMutability":"nonpayable","name":"setAgentToWalletWithSig","inputs":[{"name":"tokenId","type":"uint256"},{"name":"agent","type":"address"},{"name":"deadline","type":"uint256"},{"name":"nonce","type":"uint256"},{"name":"signature","type":"bytes"}],"outputs":[]},
  {"type":"function","stateMutability":"nonpayable","name":"autoRefuel","inputs":[{"name":"tokenId","type":"uint256"},{"name":"inbox","type":"address"},{"name":"requestData","type":"bytes"},{"name":"expectedHash","type":"bytes32"},{"name":"targetChainId","type":"uint64"}],"outputs":[]},

  {"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}],"anonymous":false},
  {"type":"event","name":"RefuelTriggered","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"chainId","type":"uint64","indexed":true},{"name":"gasAmount","type":"uint256","indexed":false},{"name":"fee","type":"uint256","indexed":false}],"anonymous":false}
]`
