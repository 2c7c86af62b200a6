package config

// Default returns the built-in deployments: uniswap on ethereum, pangolin on
// avalanche, sushiswap and viperswap on harmony.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", RequestTimeout: 30, LogLevel: "info"},
		Chains: map[string]ChainConfig{
			"ethereum": {
				NativeCurrency: "ETH",
				Networks: map[string]NetworkConfig{
					"mainnet": {ChainID: 1, NodeURL: "https://eth.llamarpc.com", RequestsPerSecond: 10},
				},
			},
			"avalanche": {
				NativeCurrency: "AVAX",
				Networks: map[string]NetworkConfig{
					"avalanche": {ChainID: 43114, NodeURL: "https://api.avax.network/ext/bc/C/rpc", RequestsPerSecond: 10},
					"fuji":      {ChainID: 43113, NodeURL: "https://api.avax-test.network/ext/bc/C/rpc", RequestsPerSecond: 10},
				},
			},
			"harmony": {
				NativeCurrency: "ONE",
				Networks: map[string]NetworkConfig{
					"mainnet": {ChainID: 1666600000, NodeURL: "https://api.harmony.one", RequestsPerSecond: 10},
					"testnet": {ChainID: 1666700000, NodeURL: "https://api.s0.b.hmny.io", RequestsPerSecond: 10},
				},
			},
		},
		Connectors: map[string]ConnectorConfig{
			"uniswap": {
				Chain:           "ethereum",
				AllowedSlippage: "1%",
				TTL:             300,
				GasLimit:        150688,
				Networks: map[string]DeploymentConfig{
					"mainnet": {
						RouterAddress:  "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
						FactoryAddress: "0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f",
						MaxHops:        3,
						Pools:          []string{"WETH-USDC", "WETH-USDT", "WETH-DAI"},
					},
				},
			},
			"pangolin": {
				Chain:           "avalanche",
				AllowedSlippage: "1%",
				TTL:             300,
				GasLimit:        150688,
				NativeName:      "AVAX",
				Networks: map[string]DeploymentConfig{
					"avalanche": {
						RouterAddress:  "0xE54Ca86531e17Ef3616d22Ca28b0D458b6C89106",
						FactoryAddress: "0xefa94DE7a4656D787667C749f7E1223D71E9FD88",
						MaxHops:        2,
					},
				},
			},
			"sushiswap": {
				Chain:           "harmony",
				AllowedSlippage: "1%",
				TTL:             300,
				GasLimit:        300000,
				Networks: map[string]DeploymentConfig{
					"mainnet": {
						RouterAddress:  "0x1b02da8cb0d097eb8d57a175b88c7d8b47997506",
						FactoryAddress: "0xc35DADB65012eC5796536bD9864eD8773aBc74C4",
					},
				},
			},
			"viperswap": {
				Chain:           "harmony",
				AllowedSlippage: "1%",
				TTL:             300,
				GasLimit:        300000,
				Networks: map[string]DeploymentConfig{
					"mainnet": {
						RouterAddress:  "0xf012702a5f0e54015362cbca26a26fc90aa832a3",
						FactoryAddress: "0x7D02c116b98d0965ba7B642ace0183ad8b8D2196",
					},
				},
			},
		},
	}
}
