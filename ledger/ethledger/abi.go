package ethledger

// contractABI is the subset of the anchor contract the operator talks to.
const contractABI = `[
  {"type":"function","name":"submitBlockHeader","stateMutability":"nonpayable",
   "inputs":[{"name":"header","type":"bytes"}],
   "outputs":[{"name":"success","type":"bool"}]},
  {"type":"function","name":"lastBlockNumber","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"DepositEvent","anonymous":false,
   "inputs":[{"name":"_from","type":"address","indexed":true},
             {"name":"_amount","type":"uint256","indexed":false},
             {"name":"_depositIndex","type":"uint256","indexed":false}]},
  {"type":"event","name":"ExpressWithdrawMadeEvent","anonymous":false,
   "inputs":[{"name":"_withdrawTxBlockNumber","type":"uint32","indexed":false},
             {"name":"_withdrawTxNumberInBlock","type":"uint32","indexed":false},
             {"name":"_from","type":"address","indexed":true}]},
  {"type":"event","name":"HeaderSubmittedEvent","anonymous":false,
   "inputs":[{"name":"_signer","type":"address","indexed":true},
             {"name":"_blockNumber","type":"uint32","indexed":false}]}
]`

const (
	methodSubmitBlockHeader = "submitBlockHeader"
	methodLastBlockNumber   = "lastBlockNumber"

	eventDeposit         = "DepositEvent"
	eventExpressWithdraw = "ExpressWithdrawMadeEvent"
	eventHeaderSubmitted = "HeaderSubmittedEvent"
)
