package mocks

//go:generate mockgen -destination=./mock_engine.go -package=mocks github.com/rxtech-lab/argo-options/internal/engine CandleSource,OptionChainSource,SentimentSource,PriceObserver,ResultStore
//go:generate mockgen -destination=./mock_execution.go -package=mocks github.com/rxtech-lab/argo-options/internal/execution PriceSource,OptionResolver,DeltaProvider,TradeStore
//go:generate mockgen -destination=./mock_instrument.go -package=mocks github.com/rxtech-lab/argo-options/internal/instrument Source
